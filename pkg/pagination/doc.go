/*
Package pagination drives paged list loading on top of the network layer.

A Feed is a cursor over numbered pages that builds the request for each
page. A Paginator owns a feed and an Issuer, tracks whether more pages
remain and brackets every request with a loading Indicator.

	feed, _ := pagination.NewFeed(20, func(p pagination.Page) network.Request[[]Comment] {
		return commentsRequest(threadID, p.Index, p.Size)
	})
	pager, _ := pagination.New[Comment](network.NewTaskIssuer[Comment](m), feed)

	pager.LoadDataIfAvailable(func(items []Comment, ok bool) {
		if !ok {
			// No data: the feed ended or the request failed. See LastError.
			return
		}
		appendRows(items)
	})

A page with exactly the page size keeps the paginator Idle. A shorter page,
or a failed request, moves it to Exhausted for good; later calls report no
data without touching the network.
*/
package pagination
