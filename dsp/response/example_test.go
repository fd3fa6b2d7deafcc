package response_test

import (
	"fmt"

	"github.com/cwbudde/algo-spectro/dsp/response"
)

func ExampleUnwrapPhase() {
	wrapped := []float64{2.8, -2.7, -2.6}
	unwrapped := response.UnwrapPhase(wrapped)
	fmt.Printf("%.3f %.3f %.3f\n", unwrapped[0], unwrapped[1], unwrapped[2])
	// Output:
	// 2.800 3.583 3.683
}

func ExampleGroupDelay() {
	// Phase of a one-sample delay at w = 0, 0.5, 1.0, 1.5 rad/sample.
	phase := []float64{0, -0.5, -1.0, -1.5}
	gd, _ := response.GroupDelay(phase, 0.5)
	fmt.Printf("%.1f %.1f %.1f %.1f\n", gd[0], gd[1], gd[2], gd[3])
	// Output:
	// 1.0 1.0 1.0 1.0
}
