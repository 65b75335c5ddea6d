package course

import (
	"go.uber.org/zap"

	cferrors "github.com/vnykmshr/courseflow/pkg/common/errors"
	"github.com/vnykmshr/courseflow/pkg/network"
	"github.com/vnykmshr/courseflow/pkg/reactive/result"
	"github.com/vnykmshr/courseflow/pkg/reactive/stream"
)

// CourseContent is a piece of course content that depends on the course
// record: the course is checked for access first, then the content is
// requested and persisted for offline use.
type CourseContent[T any] struct {
	courseID string
	manager  *network.Manager
	courses  func() stream.Source[Course]
	request  func(Course) network.Request[T]
	content  *stream.BackedStream[T]
	logger   *zap.Logger
}

// NewAnnouncements returns the course updates of courseID. courses yields
// the course record each time content is (re)loaded.
func NewAnnouncements(m *network.Manager, courseID string, courses func() stream.Source[Course], opts ...Option) *CourseContent[[]Announcement] {
	return newCourseContent(m, courseID, "announcements", courses, func(c Course) network.Request[[]Announcement] {
		return AnnouncementsRequest(courseID, c.UpdatesURL)
	}, opts)
}

// NewHandouts returns the handouts HTML of courseID.
func NewHandouts(m *network.Manager, courseID string, courses func() stream.Source[Course], opts ...Option) *CourseContent[string] {
	return newCourseContent(m, courseID, "handouts", courses, func(c Course) network.Request[string] {
		return HandoutsRequest(courseID, c.HandoutsURL)
	}, opts)
}

// CourseFromNetwork fetches the course record through m.
func CourseFromNetwork(m *network.Manager, courseID string) func() stream.Source[Course] {
	return func() stream.Source[Course] {
		return network.StreamForRequest(m, CourseRequest(courseID), network.PersistResponse())
	}
}

func newCourseContent[T any](m *network.Manager, courseID, name string, courses func() stream.Source[Course], request func(Course) network.Request[T], opts []Option) *CourseContent[T] {
	o := buildOptions(opts)
	return &CourseContent[T]{
		courseID: courseID,
		manager:  m,
		courses:  courses,
		request:  request,
		content:  stream.NewBacked[T](m.Executor(), o.backed(name, zap.String("course", courseID))...),
		logger:   o.logger.With(zap.String("content", name), zap.String("course", courseID)),
	}
}

// Stream returns the content stream. It fires on every reload.
func (c *CourseContent[T]) Stream() *stream.BackedStream[T] {
	return c.content
}

// Load binds the content stream to a fresh course lookup and request.
// A gated course fails with an AccessDeniedError.
func (c *CourseContent[T]) Load() {
	exec := c.manager.Executor()
	loaded := stream.Transform[Course, T](c.courses(), func(course Course) stream.Source[T] {
		if err := course.accessError(); err != nil {
			return stream.Error[T](exec, err)
		}
		return network.StreamForRequest(c.manager, c.request(course), network.PersistResponse())
	})
	loaded.ExtendLifetimeUntilFirstResult(func(r result.Result[T]) {
		r.IfFailure(c.logFailure)
	})
	c.content.BackWithStream(loaded)
}

func (c *CourseContent[T]) logFailure(err error) {
	if cferrors.IsAccessDenied(err) {
		c.logger.Info("course content is gated", zap.Error(err))
		return
	}
	c.logger.Warn("load course content", zap.Bool("retryable", cferrors.IsRetryable(err)), zap.Error(err))
}

// Reload is Load; it exists so content can be handed to a refresh job.
func (c *CourseContent[T]) Reload() {
	c.Load()
}
