package quiz

type Rating string

const (
	RatingExcellent  Rating = "excellent"
	RatingGood       Rating = "good"
	RatingKeepTrying Rating = "keep_trying"
)

const (
	excellentThreshold = 80.0
	goodThreshold      = 60.0
)

type Summary struct {
	Score      int     `json:"score"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Rating     Rating  `json:"rating"`
}

func Summarize(score, total int) Summary {
	var percentage float64
	if total > 0 {
		percentage = float64(score) / float64(total) * 100
	}

	rating := RatingKeepTrying
	switch {
	case percentage >= excellentThreshold:
		rating = RatingExcellent
	case percentage >= goodThreshold:
		rating = RatingGood
	}

	return Summary{Score: score, Total: total, Percentage: percentage, Rating: rating}
}

// RatingMessage returns the localized encouragement for a rating
func RatingMessage(m Messages, r Rating) string {
	switch r {
	case RatingExcellent:
		return m.ExcellentWork
	case RatingGood:
		return m.GoodWork
	}
	return m.KeepTrying
}
