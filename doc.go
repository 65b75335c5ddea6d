/*
Package courseflow provides the client-side data layer of a course viewer:
composable asynchronous results, streams that can be rebound to new
sources, and the course components built on them.

Reactive core (pkg/reactive):
  - result: Success or failure of an operation
  - stream: One-shot streams, backed streams and their combinators
  - tree: Pre-order flat-map over arena-indexed trees

Course data (pkg/course):
  - Outline queries, the outline loader chain, announcements, handouts,
    discussion topics and comments, and the last visited module

Plumbing:
  - network: HTTP requests on a worker pool, results on an executor
  - pagination: Page-by-page loading of discussion responses
  - scheduling: Executors, the worker pool and cron-driven refresh
  - config, metrics: YAML/env configuration and Prometheus metrics

Example usage:

	import (
		"github.com/vnykmshr/courseflow/pkg/course"
		"github.com/vnykmshr/courseflow/pkg/network"
		"github.com/vnykmshr/courseflow/pkg/scheduling/executor"
	)

	exec := executor.NewSerial()
	m, _ := network.New(network.Config{BaseURL: "https://courses.example.com/"}, exec)
	q := course.NewQuerier(m, "course-v1:Physics+101")

	q.ChildrenOfBlockWithID("", course.ModeVideo).Listen(nil, func(g course.BlockGroup) {
		// render g.Block and g.Children
	}, nil)
*/
package courseflow
