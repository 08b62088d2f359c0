package sim

import "github.com/rustyeddy/tradergame/market"

var feedback = map[market.Regime][2]string{
	// {win, loss}
	market.Range: {
		"Bought the dip and sold the bounce. Ranges reward patience.",
		"The range broke against you. Sideways markets still bite.",
	},
	market.TrendUp: {
		"You rode the uptrend. The trend was your friend.",
		"Even in an uptrend the pullback caught you. Timing matters.",
	},
	market.TrendDown: {
		"A win in a falling market. Nicely caught bounce.",
		"Never fight a downtrend. The market kept sliding.",
	},
	market.Volatility: {
		"Wild swings paid off this time. Lucky or skilled?",
		"Volatility shook you out. Big swings cut both ways.",
	},
}

// Feedback returns the narrative line for a closed trade.
func Feedback(r market.Regime, win bool) string {
	msgs, ok := feedback[r]
	if !ok {
		msgs = feedback[market.Range]
	}
	if win {
		return msgs[0]
	}
	return msgs[1]
}
