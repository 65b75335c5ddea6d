/*
Package course binds course content to streams.

A Querier answers questions about a course outline (a block by ID, its
parent, its children in full or video mode, every video under a block)
with streams that resolve once the outline has loaded. An OutlineLoader
chains those answers for one screen: the shown block ID drives the headers,
and the headers drive the rows.

Announcements and handouts check course access before loading and are
persisted for offline reads. LastAccessedTracker shows the stored last
visited module immediately and replaces it with the server's answer.
CommentsFeed and NewCommentsPaginator page through thread responses, and
Discussion posts and flags comments.

Every type here runs on the executor of the network.Manager it was built
with. Methods hand their work to that executor and may be called from any
goroutine, but stream values read through Value or Result, and paginators,
belong to the executor.
*/
package course
