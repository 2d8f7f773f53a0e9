package twitch

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"
)

// PassSizes are the page sizes of the successive fetch passes over the same
// range. Different page sizes surface different clips near page boundaries,
// so all three run and the results are merged.
var PassSizes = []int{2, 99, 50}

const helixTimeLayout = "2006-01-02T15:04:05Z"

var dateLayouts = []string{
	time.DateOnly,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// ParseDate accepts a calendar date (or a date-time) and returns it in UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: cannot parse date %q", ErrInvalidDateRange, s)
}

// SearchClips fetches every clip of the broadcaster created in [from, to].
// The result is unique by id and sorted ascending by creation time. A failed
// pass aborts the search.
func (c *Client) SearchClips(ctx context.Context, broadcasterID, from, to string) ([]Clip, error) {
	start, err := ParseDate(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseDate(to)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: end date cannot be earlier than start date", ErrInvalidDateRange)
	}

	var (
		clips = []Clip{}
		seen  = make(map[string]struct{})
		q     = clipsQuery{
			BroadcasterID: broadcasterID,
			StartedAt:     start.Format(helixTimeLayout),
			EndedAt:       end.Format(helixTimeLayout),
		}
	)

	for _, size := range PassSizes {
		q.First = size
		q.After = ""

		added, err := c.fetchPass(ctx, q, seen, &clips)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch clips (page size %d): %w", size, err)
		}

		slog.Debug("clip pass completed",
			slog.String("broadcaster_id", broadcasterID),
			slog.Int("page_size", size),
			slog.Int("added", added),
		)
	}

	slices.SortStableFunc(clips, func(a, b Clip) int {
		if n := a.CreatedTime().Compare(b.CreatedTime()); n != 0 {
			return n
		}
		return cmp.Compare(a.CreatedAt, b.CreatedAt)
	})

	return clips, nil
}

// fetchPass follows the cursor until the server stops returning one.
func (c *Client) fetchPass(ctx context.Context, q clipsQuery, seen map[string]struct{}, clips *[]Clip) (int, error) {
	added := 0

	for {
		var cr clipsResp
		if err := c.doRequest(ctx, "/clips", q, &cr); err != nil {
			return added, err
		}

		for _, clip := range cr.Data {
			if _, ok := seen[clip.ID]; ok {
				continue
			}
			seen[clip.ID] = struct{}{}
			*clips = append(*clips, clip)
			added++
		}

		if cr.Pagination.Cursor == "" {
			return added, nil
		}
		q.After = cr.Pagination.Cursor
	}
}
