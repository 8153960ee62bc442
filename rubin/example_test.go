package rubin_test

import (
	"fmt"

	"github.com/prcurve/prcurve/curve"
	"github.com/prcurve/prcurve/grid"
	"github.com/prcurve/prcurve/rubin"
)

func ExamplePool() {
	g, _ := grid.New([]float64{40, 50, 60}, 50)
	curves := []*curve.Predicted{
		{Grid: g, Pred: []float64{-0.20, 0, 0.30}, SE: []float64{0.10, 0, 0.10}},
		{Grid: g, Pred: []float64{-0.30, 0, 0.20}, SE: []float64{0.10, 0, 0.10}},
	}

	pooled, err := rubin.Pool(curves, rubin.WithConfidenceLevel(0.90))
	if err != nil {
		fmt.Println(err)
		return
	}

	for i, x := range g.X {
		fmt.Printf("x=%g pred=%.3f se=%.3f\n", x, pooled.Pred[i], pooled.SE[i])
	}
	// Output:
	// x=40 pred=-0.250 se=0.132
	// x=50 pred=0.000 se=0.000
	// x=60 pred=0.250 se=0.132
}
