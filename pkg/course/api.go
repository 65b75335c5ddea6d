package course

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vnykmshr/courseflow/pkg/network"
)

// OutlineRequest fetches the block tree of a course.
func OutlineRequest(courseID string) network.Request[*Outline] {
	return network.Request[*Outline]{
		Path: "api/courses/v1/blocks/",
		Query: url.Values{
			"course_id":         {courseID},
			"depth":             {"all"},
			"requested_fields":  {"children,display_name,graded,student_view_url"},
			"return_type":       {"dict"},
			"all_blocks":        {"true"},
			"block_counts":      {"video"},
			"student_view_data": {"video"},
		},
		RequiresAuth: true,
		Resource:     "course outline",
		Decode:       decodeOutline,
	}
}

func decodeOutline(body []byte) (*Outline, error) {
	var wire struct {
		Root   string           `json:"root"`
		Blocks map[string]Block `json:"blocks"`
	}
	if err := json.Unmarshal(body, &wire); err != nil {
		return nil, err
	}
	return NewOutline(wire.Root, wire.Blocks)
}

// CourseRequest fetches the enrollment record of a course.
func CourseRequest(courseID string) network.Request[Course] {
	return network.Request[Course]{
		Path:         "api/mobile/v0.5/courses/" + url.PathEscape(courseID),
		RequiresAuth: true,
		Resource:     "course",
		Decode:       network.DecodeJSON[Course](),
	}
}

// AnnouncementsRequest fetches course updates. overrideURL replaces the
// default path when non-empty.
func AnnouncementsRequest(courseID, overrideURL string) network.Request[[]Announcement] {
	path := overrideURL
	if path == "" {
		path = fmt.Sprintf("api/mobile/v0.5/course_info/%s/updates", url.PathEscape(courseID))
	}
	return network.Request[[]Announcement]{
		Path:         path,
		RequiresAuth: true,
		Resource:     "announcements",
		Decode: func(body []byte) ([]Announcement, error) {
			var out []Announcement
			if err := json.Unmarshal(body, &out); err != nil {
				return nil, err
			}
			if out == nil {
				return nil, fmt.Errorf("expected a list of announcements")
			}
			return out, nil
		},
	}
}

// HandoutsRequest fetches the course handouts HTML.
func HandoutsRequest(courseID, overrideURL string) network.Request[string] {
	path := overrideURL
	if path == "" {
		path = fmt.Sprintf("api/mobile/v0.5/course_info/%s/handouts", url.PathEscape(courseID))
	}
	return network.Request[string]{
		Path:         path,
		RequiresAuth: true,
		Resource:     "handouts",
		Decode: func(body []byte) (string, error) {
			var wire struct {
				HTML *string `json:"handouts_html"`
			}
			if err := json.Unmarshal(body, &wire); err != nil {
				return "", err
			}
			if wire.HTML == nil {
				return "", fmt.Errorf("missing handouts_html")
			}
			return *wire.HTML, nil
		},
	}
}

// TopicsRequest fetches the discussion topics of a course. General
// topics come before the courseware topics.
func TopicsRequest(courseID string) network.Request[[]Topic] {
	return network.Request[[]Topic]{
		Path:         "api/discussion/v1/course_topics/" + url.PathEscape(courseID),
		RequiresAuth: true,
		Resource:     "discussion topics",
		Decode: func(body []byte) ([]Topic, error) {
			var wire struct {
				Courseware    []Topic `json:"courseware_topics"`
				NonCourseware []Topic `json:"non_courseware_topics"`
			}
			if err := json.Unmarshal(body, &wire); err != nil {
				return nil, err
			}
			return append(wire.NonCourseware, wire.Courseware...), nil
		},
	}
}

// ResponsesRequest fetches one page of responses to a thread.
func ResponsesRequest(threadID string, page, pageSize int) network.Request[[]Comment] {
	return network.Request[[]Comment]{
		Path: "api/discussion/v1/comments/",
		Query: url.Values{
			"thread_id": {threadID},
			"page":      {strconv.Itoa(page)},
			"page_size": {strconv.Itoa(pageSize)},
		},
		RequiresAuth: true,
		Resource:     "responses",
		Decode: func(body []byte) ([]Comment, error) {
			var wire struct {
				Results []Comment `json:"results"`
			}
			if err := json.Unmarshal(body, &wire); err != nil {
				return nil, err
			}
			if wire.Results == nil {
				wire.Results = []Comment{}
			}
			return wire.Results, nil
		},
	}
}

// AddCommentRequest posts a comment to a thread.
func AddCommentRequest(threadID, body string) network.Request[Comment] {
	payload, contentType, _ := network.JSONBody(map[string]string{
		"thread_id": threadID,
		"raw_body":  body,
	})
	return network.Request[Comment]{
		Method:       http.MethodPost,
		Path:         "api/discussion/v1/comments/",
		Body:         payload,
		ContentType:  contentType,
		RequiresAuth: true,
		Resource:     "comment",
		Decode:       network.DecodeJSON[Comment](),
	}
}

// FlagCommentRequest sets or clears the abuse flag of a comment.
func FlagCommentRequest(commentID string, flagged bool) network.Request[Comment] {
	payload, contentType, _ := network.JSONBody(map[string]bool{"abuse_flagged": flagged})
	return network.Request[Comment]{
		Method:       http.MethodPatch,
		Path:         "api/discussion/v1/comments/" + url.PathEscape(commentID) + "/",
		Body:         payload,
		ContentType:  contentType,
		RequiresAuth: true,
		Resource:     "comment flag",
		Decode:       network.DecodeJSON[Comment](),
	}
}

// LastAccessedRequest fetches the module the user last visited.
func LastAccessedRequest(username, courseID string) network.Request[LastAccessed] {
	return network.Request[LastAccessed]{
		Path:         fmt.Sprintf("api/mobile/v0.5/users/%s/course_status_info/%s", url.PathEscape(username), url.PathEscape(courseID)),
		RequiresAuth: true,
		Resource:     "last accessed module",
		Decode:       decodeLastAccessed,
	}
}

// SetLastAccessedRequest records moduleID as the last visited module.
func SetLastAccessedRequest(username, courseID, moduleID string, at time.Time) network.Request[LastAccessed] {
	payload, contentType, _ := network.JSONBody(map[string]string{
		"last_visited_module_id": moduleID,
		"modification_date":      at.UTC().Format(time.RFC3339),
	})
	return network.Request[LastAccessed]{
		Method:       http.MethodPatch,
		Path:         fmt.Sprintf("api/mobile/v0.5/users/%s/course_status_info/%s", url.PathEscape(username), url.PathEscape(courseID)),
		Body:         payload,
		ContentType:  contentType,
		RequiresAuth: true,
		Resource:     "last accessed module",
		Decode:       decodeLastAccessed,
	}
}

func decodeLastAccessed(body []byte) (LastAccessed, error) {
	var la LastAccessed
	if err := json.Unmarshal(body, &la); err != nil {
		return LastAccessed{}, err
	}
	if la.ModuleID == "" {
		return LastAccessed{}, fmt.Errorf("missing last_visited_module_id")
	}
	return la, nil
}
