package student

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "concession_student_cache_hits_total",
		Help: "Student profile lookups served from the cache.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "concession_student_cache_misses_total",
		Help: "Student profile lookups that went to the store.",
	})
)

// Cache holds profiles by email with a fixed TTL.
type Cache struct {
	lru *expirable.LRU[string, *Student]
}

func NewCache(size int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, *Student](size, nil, ttl)}
}

func (c *Cache) Get(email string) (*Student, bool) {
	if c == nil {
		return nil, false
	}
	s, ok := c.lru.Get(email)
	if ok {
		cacheHitsTotal.Inc()
		return s, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

func (c *Cache) Set(email string, s *Student) {
	if c == nil {
		return
	}
	c.lru.Add(email, s)
}
