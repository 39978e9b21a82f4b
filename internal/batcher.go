package internal

type batcher struct {
	// each nested hold increases the depth by 1
	// while depth > 0, flush requests park in the deferred queue
	depth int
}

func (b *batcher) hold() {
	b.depth++
}

func (b *batcher) release() {
	if b.depth == 0 {
		misuse("Runtime.Release", "release without a matching hold")
	}
	b.depth--
}

func (b *batcher) idle() bool {
	return b.depth == 0
}
