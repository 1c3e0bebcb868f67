package energy_params

/******************************************************************************

This file holds the temperature-scaling logic that turns a `rawEnergyParams`
(the 37C/enthalpy pairs produced by `parse.go`/`defaults.go`) into a usable
`EnergyParams`. Structs and consts shared with the parser live in
energy_params.go; this file only contains `(rawEnergyParams).scaleByTemperature`
and its helpers.

******************************************************************************/

const measurementTemperatureInCelsius float64 = 37.0

type intFunc = func(int) int

func idInt(x int) int { return x }

// onlyLessThanOrEqualToZero returns x if x <= 0, else 0. Mismatch-in-multi-
// and exterior-loop bonuses are never allowed to destabilize a structure, so
// they're clamped at zero once rescaled.
func onlyLessThanOrEqualToZero(x int) int {
	if x < 0 {
		return x
	}
	return 0
}

func rescaleDgSlice(energy interface{}, enthalpy interface{}, temperatureInCelsius float64, fn intFunc) (ret interface{}) {
	switch energy := energy.(type) {
	case []int:
		return rescaleDg1Dim(energy, enthalpy.([]int), temperatureInCelsius, fn)
	case [][]int:
		return rescaleDg2Dim(energy, enthalpy.([][]int), temperatureInCelsius, fn)
	case [][][]int:
		return rescaleDg3Dim(energy, enthalpy.([][][]int), temperatureInCelsius, fn)
	case [][][][]int:
		return rescaleDg4Dim(energy, enthalpy.([][][][]int), temperatureInCelsius, fn)
	case [][][][][]int:
		return rescaleDg5Dim(energy, enthalpy.([][][][][]int), temperatureInCelsius, fn)
	case [][][][][][]int:
		return rescaleDg6Dim(energy, enthalpy.([][][][][][]int), temperatureInCelsius, fn)
	}
	return
}

func rescaleDg1Dim(energy []int, enthalpy []int, temperatureInCelsius float64, fn intFunc) (ret []int) {
	lenEnergy := len(energy)
	ret = make([]int, lenEnergy)
	for i := 0; i < lenEnergy; i++ {
		val := rescaleDg(energy[i], enthalpy[i], temperatureInCelsius)
		ret[i] = fn(val)
	}
	return
}

func rescaleDg2Dim(energy [][]int, enthalpy [][]int, temperatureInCelsius float64, fn intFunc) (ret [][]int) {
	lenEnergy := len(energy)
	ret = make([][]int, lenEnergy)
	for i := 0; i < lenEnergy; i++ {
		ret[i] = rescaleDgSlice(energy[i], enthalpy[i], temperatureInCelsius, fn).([]int)
	}
	return
}

func rescaleDg3Dim(energy [][][]int, enthalpy [][][]int, temperatureInCelsius float64, fn intFunc) (ret [][][]int) {
	lenEnergy := len(energy)
	ret = make([][][]int, lenEnergy)
	for i := 0; i < lenEnergy; i++ {
		ret[i] = rescaleDgSlice(energy[i], enthalpy[i], temperatureInCelsius, fn).([][]int)
	}
	return
}

func rescaleDg4Dim(energy [][][][]int, enthalpy [][][][]int, temperatureInCelsius float64, fn intFunc) (ret [][][][]int) {
	lenEnergy := len(energy)
	ret = make([][][][]int, lenEnergy)
	for i := 0; i < lenEnergy; i++ {
		ret[i] = rescaleDgSlice(energy[i], enthalpy[i], temperatureInCelsius, fn).([][][]int)
	}
	return
}

func rescaleDg5Dim(energy [][][][][]int, enthalpy [][][][][]int, temperatureInCelsius float64, fn intFunc) (ret [][][][][]int) {
	lenEnergy := len(energy)
	ret = make([][][][][]int, lenEnergy)
	for i := 0; i < lenEnergy; i++ {
		ret[i] = rescaleDgSlice(energy[i], enthalpy[i], temperatureInCelsius, fn).([][][][]int)
	}
	return
}

func rescaleDg6Dim(energy [][][][][][]int, enthalpy [][][][][][]int, temperatureInCelsius float64, fn intFunc) (ret [][][][][][]int) {
	lenEnergy := len(energy)
	ret = make([][][][][][]int, lenEnergy)
	for i := 0; i < lenEnergy; i++ {
		ret[i] = rescaleDgSlice(energy[i], enthalpy[i], temperatureInCelsius, fn).([][][][][]int)
	}
	return
}

// scaleByTemperature scales energy parameters according to the specified
// temperature.
func (rawEnergyParams rawEnergyParams) scaleByTemperature(temperature float64) *EnergyParams {

	// set the non-matrix energy parameters
	var params *EnergyParams = &EnergyParams{
		LogExtrapolationConstant:         rescaleDgFloat64(rawEnergyParams.logExtrapolationConstant, 0, temperature),
		TerminalAUPenalty:                rescaleDg(rawEnergyParams.terminalAU37C, rawEnergyParams.terminalAUEnthalpy, temperature),
		MultiLoopUnpairedNucleotideBonus: rescaleDg(rawEnergyParams.multiLoopBase37C, rawEnergyParams.multiLoopBaseEnthalpy, temperature),
		MultiLoopClosingPenalty:          rescaleDg(rawEnergyParams.multiLoopClosing37C, rawEnergyParams.multiLoopClosingEnthalpy, temperature),
		Ninio:                            rescaleDg(rawEnergyParams.ninio37C, rawEnergyParams.ninioEnthalpy, temperature),
		MaxNinio:                         rawEnergyParams.maxNinio,
	}

	params.HairpinLoop = rescaleDgSlice(rawEnergyParams.hairpinLoopEnergy37C, rawEnergyParams.hairpinLoopEnthalpy, temperature, idInt).([]int)
	params.Bulge = rescaleDgSlice(rawEnergyParams.bulgeEnergy37C, rawEnergyParams.bulgeEnthalpy, temperature, idInt).([]int)
	params.InteriorLoop = rescaleDgSlice(rawEnergyParams.interiorLoopEnergy37C, rawEnergyParams.interiorLoopEnthalpy, temperature, idInt).([]int)

	params.MultiLoopIntern = make([]int, MaxLenLoop+1)
	for i := 0; i <= MaxLenLoop; i++ {
		params.MultiLoopIntern[i] = rescaleDg(rawEnergyParams.multiLoopIntern37C, rawEnergyParams.multiLoopInternEnthalpy, temperature)
	}

	params.TetraLoop = make(map[string]int)
	for loop := range rawEnergyParams.tetraLoopEnergy37C {
		params.TetraLoop[loop] = rescaleDg(rawEnergyParams.tetraLoopEnergy37C[loop], rawEnergyParams.tetraLoopEnthalpy[loop], temperature)
	}

	params.TriLoop = make(map[string]int)
	for loop := range rawEnergyParams.triLoopEnergy37C {
		params.TriLoop[loop] = rescaleDg(rawEnergyParams.triLoopEnergy37C[loop], rawEnergyParams.triLoopEnthalpy[loop], temperature)
	}

	params.HexaLoop = make(map[string]int)
	for loop := range rawEnergyParams.hexaLoopEnergy37C {
		params.HexaLoop[loop] = rescaleDg(rawEnergyParams.hexaLoopEnergy37C[loop], rawEnergyParams.hexaLoopEnthalpy[loop], temperature)
	}

	/* stacks    G(T) = H - [H - G(T0)]*T/T0 */
	params.StackingPair = rescaleDgSlice(rawEnergyParams.stackingPairEnergy37C, rawEnergyParams.stackingPairEnthalpy, temperature, idInt).([][]int)

	/* mismatches */
	params.MismatchInteriorLoop = rescaleDgSlice(rawEnergyParams.mismatchInteriorLoopEnergy37C, rawEnergyParams.mismatchInteriorLoopEnthalpy, temperature, idInt).([][][]int)
	params.MismatchHairpinLoop = rescaleDgSlice(rawEnergyParams.mismatchHairpinLoopEnergy37C, rawEnergyParams.mismatchHairpinLoopEnthalpy, temperature, idInt).([][][]int)
	params.Mismatch1xnInteriorLoop = rescaleDgSlice(rawEnergyParams.mismatch1xnInteriorLoopEnergy37C, rawEnergyParams.mismatch1xnInteriorLoopEnthalpy, temperature, idInt).([][][]int)
	params.Mismatch2x3InteriorLoop = rescaleDgSlice(rawEnergyParams.mismatch2x3InteriorLoopEnergy37C, rawEnergyParams.mismatch2x3InteriorLoopEnthalpy, temperature, idInt).([][][]int)

	params.MismatchMultiLoop = rescaleDgSlice(rawEnergyParams.mismatchMultiLoopEnergy37C, rawEnergyParams.mismatchMultiLoopEnthalpy, temperature, onlyLessThanOrEqualToZero).([][][]int)
	params.MismatchExteriorLoop = rescaleDgSlice(rawEnergyParams.mismatchExteriorLoopEnergy37C, rawEnergyParams.mismatchExteriorLoopEnthalpy, temperature, onlyLessThanOrEqualToZero).([][][]int)

	/* dangling ends energies */
	params.DanglingEndsFivePrime = rescaleDgSlice(rawEnergyParams.danglingEndsFivePrimeEnergy37C, rawEnergyParams.danglingEndsFivePrimeEnthalpy, temperature, onlyLessThanOrEqualToZero).([][]int)
	params.DanglingEndsThreePrime = rescaleDgSlice(rawEnergyParams.danglingEndsThreePrimeEnergy37C, rawEnergyParams.danglingEndsThreePrimeEnthalpy, temperature, onlyLessThanOrEqualToZero).([][]int)

	/* interior 1x1 loops */
	params.Interior1x1Loop = rescaleDgSlice(rawEnergyParams.interior1x1LoopEnergy37C, rawEnergyParams.interior1x1LoopEnthalpy, temperature, idInt).([][][][]int)

	/* interior 2x1 loops */
	params.Interior2x1Loop = rescaleDgSlice(rawEnergyParams.interior2x1LoopEnergy37C, rawEnergyParams.interior2x1LoopEnthalpy, temperature, idInt).([][][][][]int)

	/* interior 2x2 loops */
	params.Interior2x2Loop = rescaleDgSlice(rawEnergyParams.interior2x2LoopEnergy37C, rawEnergyParams.interior2x2LoopEnthalpy, temperature, idInt).([][][][][][]int)

	return params
}

/**
Rescale Gibbs free energy according to the equation dG = dH - T * dS
where dG is the change in Gibbs free energy
            dH is the change in enthalpy
            dS is the change in entropy
            T is the temperature
*/
func rescaleDg(dG, dH int, temperature float64) int {
	// if temperature == measurementTemperatureInCelsius then below calculation
	// will always return dG. So we save some computation with this check.
	if temperature == measurementTemperatureInCelsius {
		return dG
	}

	measurementTemperatureInKelvin := measurementTemperatureInCelsius + ZeroCelsiusInKelvin
	temperatureInKelvin := temperature + ZeroCelsiusInKelvin
	var T float64 = temperatureInKelvin / measurementTemperatureInKelvin

	dGFloat64 := float64(dG)
	dHFloat64 := float64(dH)

	dSFloat64 := dHFloat64 - dGFloat64

	return int(dHFloat64 - dSFloat64*T)
}

// same as rescaleDg, but for float64
func rescaleDgFloat64(dG, dH, temperature float64) float64 {
	if temperature == measurementTemperatureInCelsius {
		return dG
	}

	measurementTemperatureInKelvin := measurementTemperatureInCelsius + ZeroCelsiusInKelvin
	temperatureInKelvin := temperature + ZeroCelsiusInKelvin
	var T float64 = temperatureInKelvin / measurementTemperatureInKelvin

	dS := dH - dG
	return dH - dS*T
}
