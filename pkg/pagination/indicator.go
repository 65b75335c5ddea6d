package pagination

// Indicator is the loading affordance a list shows while a page is in
// flight. Start and Stop bracket every request. Detach is called once the
// feed is exhausted and the indicator will not be needed again.
type Indicator interface {
	Start()
	Stop()
	Detach()
}

type nopIndicator struct{}

func (nopIndicator) Start()  {}
func (nopIndicator) Stop()   {}
func (nopIndicator) Detach() {}

// NopIndicator returns an Indicator that does nothing.
func NopIndicator() Indicator {
	return nopIndicator{}
}
