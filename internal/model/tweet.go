package model

// TweetRecord is a normalized tweet used for the chart overlay.
type TweetRecord struct {
	Username     string `json:"username"`
	Handle       string `json:"handle"`
	Text         string `json:"text"`
	Timestamp    string `json:"timestamp"`
	ProfileImage string `json:"profileImage,omitempty"`
}
