package utils

// JobsPull bounds how many jobs run at the same time
type JobsPull struct {
	jobs chan struct{}
}

func (p *JobsPull) Get() {
	<-p.jobs
}

func (p *JobsPull) Put() {
	p.jobs <- struct{}{}
}

func NewJobsPull(size int) (j *JobsPull) {
	j = &JobsPull{jobs: make(chan struct{}, size)}
	for range size {
		j.jobs <- struct{}{}
	}
	return j
}
