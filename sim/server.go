package sim

import "fmt"

// Server processes at most one job at a time.
type Server struct {
	Index     int
	Busy      bool
	Job       *Job    // owned by the server while Busy, nil otherwise
	StartTime float64 // virtual time the current job started service
}

// ServerPool is a fixed-size set of independent servers, indexed 0..n-1.
type ServerPool struct {
	servers []*Server
}

// NewServerPool creates n idle servers.
func NewServerPool(n int) *ServerPool {
	servers := make([]*Server, n)
	for i := range servers {
		servers[i] = &Server{Index: i}
	}
	return &ServerPool{servers: servers}
}

// Len returns the number of servers.
func (p *ServerPool) Len() int { return len(p.servers) }

// Server returns the server at index i.
func (p *ServerPool) Server(i int) *Server { return p.servers[i] }

// Servers returns all servers in index order. Callers MUST NOT modify the slice.
func (p *ServerPool) Servers() []*Server { return p.servers }

// FirstIdle returns the lowest-indexed idle server at or after index from, or nil.
func (p *ServerPool) FirstIdle(from int) *Server {
	for i := from; i < len(p.servers); i++ {
		if !p.servers[i].Busy {
			return p.servers[i]
		}
	}
	return nil
}

// Busy returns the number of busy servers.
func (p *ServerPool) Busy() int {
	n := 0
	for _, s := range p.servers {
		if s.Busy {
			n++
		}
	}
	return n
}

// Assign marks server i busy with job from now on.
func (p *ServerPool) Assign(i int, job *Job, now float64) *Server {
	s := p.servers[i]
	if s.Busy {
		panic(fmt.Sprintf("Assign: server %d already busy with job %d", i, s.Job.ID))
	}
	s.Busy = true
	s.Job = job
	s.StartTime = now
	return s
}

// Release returns server i to idle and hands back the job it was serving.
func (p *ServerPool) Release(i int) *Job {
	s := p.servers[i]
	if !s.Busy {
		panic(fmt.Sprintf("Release: server %d is not busy", i))
	}
	job := s.Job
	s.Busy = false
	s.Job = nil
	return job
}
