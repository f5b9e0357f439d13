// Package analysis characterizes recorded runs: the roll oscillation
// spectrum, settling after a disturbance, and roll/roll-rate phase
// portraits.
//
//	roll, _ := series.Column("roll")
//	if peak, ok := analysis.Dominant(roll, meta.Dt); ok {
//	    fmt.Printf("wobble at %.2f Hz\n", peak.Freq)
//	}
package analysis
