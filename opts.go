package sqlspan

// Opt is a type for options that can be passed to NewInterceptor and
// WrapDriver.
type Opt func(*Interceptor)

// WithOpsExcluded can be passed as option to NewInterceptor.
// Statements executed by the passed operations are not reported to the
// collector.
func WithOpsExcluded(ops ...SQLOp) Opt {
	return func(icp *Interceptor) {
		for _, op := range ops {
			icp.excludedOps[op] = struct{}{}
		}
	}
}
