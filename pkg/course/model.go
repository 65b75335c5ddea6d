package course

import (
	"time"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
)

// BlockType is the kind of a course block.
type BlockType string

const (
	BlockCourse     BlockType = "course"
	BlockChapter    BlockType = "chapter"
	BlockSequential BlockType = "sequential"
	BlockVertical   BlockType = "vertical"
	BlockVideo      BlockType = "video"
	BlockHTML       BlockType = "html"
	BlockProblem    BlockType = "problem"
	BlockDiscussion BlockType = "discussion"
)

// IsVideo reports whether the block plays a video.
func (t BlockType) IsVideo() bool {
	return t == BlockVideo
}

// Block is one node of a course outline.
type Block struct {
	ID             string    `json:"id"`
	Type           BlockType `json:"type"`
	Name           string    `json:"display_name"`
	Children       []string  `json:"children,omitempty"`
	StudentViewURL string    `json:"student_view_url,omitempty"`
	Graded         bool      `json:"graded,omitempty"`
}

// BlockGroup is a block together with its visible children.
type BlockGroup struct {
	Block    Block
	Children []Block
}

// CoursewareAccess says whether the user may open a course.
type CoursewareAccess struct {
	HasAccess        bool   `json:"has_access"`
	ErrorCode        string `json:"error_code,omitempty"`
	DeveloperMessage string `json:"developer_message,omitempty"`
	UserMessage      string `json:"user_message,omitempty"`
}

// Course is the enrollment-level description of a course.
type Course struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Access           *CoursewareAccess `json:"courseware_access,omitempty"`
	StartDisplayInfo string            `json:"start_display,omitempty"`
	// UpdatesURL and HandoutsURL override the default API paths when set.
	UpdatesURL  string `json:"course_updates,omitempty"`
	HandoutsURL string `json:"course_handouts,omitempty"`
}

// accessError returns the error to report for a gated course, or nil.
func (c Course) accessError() error {
	if c.Access == nil || c.Access.HasAccess {
		return nil
	}
	return &cferrors.AccessDeniedError{
		CourseID:    c.ID,
		Code:        c.Access.ErrorCode,
		Message:     c.Access.UserMessage,
		DisplayInfo: c.StartDisplayInfo,
	}
}

// Announcement is one course update.
type Announcement struct {
	Date    string `json:"date"`
	Content string `json:"content"`
}

// LastAccessed records the module a user last visited in a course.
type LastAccessed struct {
	ModuleID   string    `json:"last_visited_module_id"`
	ModulePath []string  `json:"last_visited_module_path,omitempty"`
	ModuleName string    `json:"module_name,omitempty"`
	VisitedAt  time.Time `json:"visited_at,omitempty"`
}

// Topic is a discussion topic. Courseware topics nest.
type Topic struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Children []Topic `json:"children,omitempty"`
}

// Comment is a response or comment in a discussion thread.
type Comment struct {
	ID        string    `json:"id"`
	ThreadID  string    `json:"thread_id"`
	Author    string    `json:"author"`
	RawBody   string    `json:"raw_body"`
	CreatedAt time.Time `json:"created_at"`
	Flagged   bool      `json:"abuse_flagged"`
}

// CommentAdded announces a comment posted from this client.
type CommentAdded struct {
	ThreadID string
	Comment  Comment
}
