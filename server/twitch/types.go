package twitch

import "time"

// Clip is a single clip as returned by the helix clips endpoint. Filename is
// assigned after formatting and never comes from the api.
type Clip struct {
	ID              string `json:"id"`
	URL             string `json:"url"`
	Title           string `json:"title"`
	CreatorName     string `json:"creator_name"`
	BroadcasterName string `json:"broadcaster_name"`
	CreatedAt       string `json:"created_at"`
	GameID          string `json:"game_id"`
	Filename        string `json:"filename,omitempty"`
}

// CreatedTime parses CreatedAt, returning the zero time when it is malformed.
func (c Clip) CreatedTime() time.Time {
	t, _ := time.Parse(time.RFC3339, c.CreatedAt)
	return t
}

type pagination struct {
	Cursor string `json:"cursor"`
}

type clipsResp struct {
	Data       []Clip     `json:"data"`
	Pagination pagination `json:"pagination"`
}

type usersResp struct {
	Data []struct {
		ID          string `json:"id"`
		Login       string `json:"login"`
		DisplayName string `json:"display_name"`
	} `json:"data"`
}

type gamesResp struct {
	Data []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"data"`
}

type usersQuery struct {
	Login string `url:"login"`
}

type gamesQuery struct {
	ID string `url:"id"`
}

type clipsQuery struct {
	BroadcasterID string `url:"broadcaster_id"`
	First         int    `url:"first"`
	StartedAt     string `url:"started_at"`
	EndedAt       string `url:"ended_at"`
	After         string `url:"after,omitempty"`
}
