package transform

// Progress receives advisory scan progress. Implementations must be
// cheap and non-blocking; transforms call it at coarse intervals and
// once at completion.
type Progress func(done, total int)

// progressEvery is the row interval between progress reports.
const progressEvery = 1000

// report invokes p when set.
func report(p Progress, done, total int) {
	if p != nil {
		p(done, total)
	}
}
