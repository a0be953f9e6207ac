package opportunity

import "github.com/rotisserie/eris"

var (
	// ErrQueryRequired is returned for an empty or blank analysis query.
	ErrQueryRequired = eris.New("query is required")
	// ErrQuestionRequired is returned for an empty or blank follow-up question.
	ErrQuestionRequired = eris.New("question is required")
)

// DiscoveryError reports that the Yelp AI Chat call failed.
type DiscoveryError struct {
	Err error
}

func (e *DiscoveryError) Error() string {
	return "opportunity: discovery failed: " + e.Err.Error()
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// NoCompetitorsError reports that discovery, and the detail fetch after it,
// produced no businesses. Reply is the conversational text Yelp returned.
type NoCompetitorsError struct {
	Reply string
}

func (e *NoCompetitorsError) Error() string {
	return "opportunity: no competitors found to analyze"
}
