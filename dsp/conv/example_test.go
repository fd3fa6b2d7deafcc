package conv_test

import (
	"fmt"

	"github.com/cwbudde/algo-spectro/dsp/conv"
)

func ExampleDirect() {
	out, err := conv.Direct([]float64{1, 2, 3}, []float64{1, 1, 1})
	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Println(out)
	// Output:
	// [1 3 6 5 3]
}

func ExampleCorrelateFFT() {
	a := []float64{0, 0, 1, 0}
	b := []float64{1, 0, 0, 0}

	corr, err := conv.CorrelateFFT(a, b)
	if err != nil {
		fmt.Println(err)
		return
	}

	idx, _ := conv.FindPeak(corr)
	fmt.Println("lag:", conv.LagFromIndex(idx, len(b)))
	// Output:
	// lag: 2
}
