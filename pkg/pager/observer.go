package pager

// Observer receives the outbound signals of a Session. Calls arrive on
// worker goroutines, except for answers given synchronously by the load
// methods themselves.
type Observer[T any] interface {
	// OnResult is the authoritative answer, exactly once per request.
	OnResult(req PageRequest, items []T)

	// OnPreview carries cache data for the first page, at most once and
	// never after OnResult for the same request.
	OnPreview(req PageRequest, items []T)

	// OnBoundary fires once per completed FORWARD request.
	OnBoundary(b Boundary)

	// OnError reports NetworkFault failures so the caller can offer a retry.
	OnError(err *PageError)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs[T any] struct {
	Result   func(req PageRequest, items []T)
	Preview  func(req PageRequest, items []T)
	Boundary func(b Boundary)
	Error    func(err *PageError)
}

func (o ObserverFuncs[T]) OnResult(req PageRequest, items []T) {
	if o.Result != nil {
		o.Result(req, items)
	}
}

func (o ObserverFuncs[T]) OnPreview(req PageRequest, items []T) {
	if o.Preview != nil {
		o.Preview(req, items)
	}
}

func (o ObserverFuncs[T]) OnBoundary(b Boundary) {
	if o.Boundary != nil {
		o.Boundary(b)
	}
}

func (o ObserverFuncs[T]) OnError(err *PageError) {
	if o.Error != nil {
		o.Error(err)
	}
}

var _ Observer[struct{}] = ObserverFuncs[struct{}]{}
