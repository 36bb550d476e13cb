// Package evp turns compiled source context into an Employee Value
// Proposition report.
package evp

// Dimension is one of the four fixed EVP pillars together with the guiding
// questions the report must answer for it.
type Dimension struct {
	Name      string
	Questions []string
}

var dimensions = []Dimension{
	{
		Name: "Great Company",
		Questions: []string{
			"How well is the business managed?",
			"Is there a well-defined culture and are values appealing to employees?",
			"What contribution does the business have on society?",
		},
	},
	{
		Name: "Great People",
		Questions: []string{
			"How does leadership motivate and inspire employees?",
			"Is top-tier management well aligned and trustworthy?",
			"How is my interaction with colleagues?",
		},
	},
	{
		Name: "Great Rewards",
		Questions: []string{
			"How are employees recognized and rewarded for performance?",
			"How does the business differentiate rewards for high performers?",
			"What are the non-monetary benefits?",
		},
	},
	{
		Name: "Great Job",
		Questions: []string{
			"Are opportunities to advance clearly defined?",
			"Are employees given opportunities to improve their skill set?",
			"How interesting and challenging is the work?",
			"What coaching and mentoring platforms exist?",
		},
	},
}

// Dimensions returns a copy of the EVP dimensions in report order.
func Dimensions() []Dimension {
	out := make([]Dimension, len(dimensions))
	for i, d := range dimensions {
		out[i] = Dimension{Name: d.Name, Questions: append([]string(nil), d.Questions...)}
	}
	return out
}
