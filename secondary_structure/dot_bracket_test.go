package secondary_structure

import "fmt"

func ExampleFromDotBracket() {
	dotBracket := "..((((...))))...((........)).."
	annotatedStructure, secondaryStructure, err := FromDotBracket(dotBracket)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(annotatedStructure)
	fmt.Println(DotBracket(secondaryStructure, 0) == dotBracket)
	// Output:
	// ee((((hhh))))eee((hhhhhhhh))ee
	// true
}

func ExampleFromDotBracket_multiLoop() {
	dotBracket := "(((((((((...((((((.........))))))........((((((.......))))))..)))))))))"
	annotatedStructure, secondaryStructure, err := FromDotBracket(dotBracket)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(annotatedStructure)
	fmt.Println(DotBracket(secondaryStructure, 0) == dotBracket)
	// Output:
	// (((((((((mmm((((((hhhhhhhhh))))))mmmmmmmm((((((hhhhhhh))))))mm)))))))))
	// true
}

func ExampleFromDotBracket_interiorLoop() {
	dotBracket := "((((.((((......))))((((...))....)).))))"
	annotatedStructure, secondaryStructure, err := FromDotBracket(dotBracket)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(annotatedStructure)
	fmt.Println(DotBracket(secondaryStructure, 0) == dotBracket)
	// Output:
	// ((((m((((hhhhhh))))((((hhh))iiii))m))))
	// true
}

func ExampleFromDotBracket_nested() {
	dotBracket := "......((((((.(((..(((((.(((....(((((......)))))..))).))))).)))....))))))..................."
	annotatedStructure, secondaryStructure, err := FromDotBracket(dotBracket)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(annotatedStructure)
	fmt.Println(DotBracket(secondaryStructure, 0) == dotBracket)
	// Output:
	// eeeeee((((((i(((ii(((((i(((iiii(((((hhhhhh)))))ii)))i)))))i)))iiii))))))eeeeeeeeeeeeeeeeeee
	// true
}

func ExampleFromDotBracket_gquad() {
	dotBracket := "..++.++.++.++.."
	annotatedStructure, secondaryStructure, err := FromDotBracket(dotBracket)
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(annotatedStructure)
	fmt.Println(len(secondaryStructure.GQuads))
	fmt.Println(secondaryStructure.GQuads[0].StackSize)
	fmt.Println(DotBracket(secondaryStructure, 0) == dotBracket)
	// Output:
	// eeggeggeggeggee
	// 1
	// 2
	// true
}

func ExampleFromDotBracket_invalid() {
	_, _, err := FromDotBracket("((..)")
	fmt.Println(err != nil)
	// Output:
	// true
}
