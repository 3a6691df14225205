package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Batas key per form (timeline punya satu key per window).
const maxKeysPerForm = 64

type cacheEntry struct {
	value   any
	expires time.Time
}

type formGen struct {
	gen uint64
	at  time.Time
}

// resultCache: memo per form. Invalidate memberi form generasi baru (global, naik terus)
// sehingga hasil hitungan yang mulai sebelum invalidasi tidak pernah disimpan.
// Generasi form yang sudah lama diinvalidasi dibuang; form tanpa entri memakai base,
// yang tidak pernah lebih kecil dari generasi mana pun yang sudah dibuang.
type resultCache struct {
	mu        sync.Mutex
	ttl       time.Duration
	genMaxAge time.Duration
	seq       uint64
	base      uint64
	gens      map[uuid.UUID]formGen
	entries   map[uuid.UUID]map[string]cacheEntry
	nextPrune time.Time
}

// genMaxAge harus lebih lama dari durasi hitungan terlama (computeTimeout).
func newResultCache(ttl, genMaxAge time.Duration) *resultCache {
	return &resultCache{
		ttl:       ttl,
		genMaxAge: genMaxAge,
		gens:      make(map[uuid.UUID]formGen),
		entries:   make(map[uuid.UUID]map[string]cacheEntry),
	}
}

func (c *resultCache) genOf(formID uuid.UUID) uint64 {
	if g, ok := c.gens[formID]; ok {
		return g.gen
	}
	return c.base
}

// get mengembalikan (value, true) kalau masih segar, plus generasi form saat ini.
func (c *resultCache) get(formID uuid.UUID, key string, now time.Time) (any, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	gen := c.genOf(formID)
	if e, ok := c.entries[formID][key]; ok {
		if now.Before(e.expires) {
			return e.value, gen, true
		}
		c.drop(formID, key)
	}
	return nil, gen, false
}

func (c *resultCache) put(formID uuid.UUID, key string, gen uint64, value any, now time.Time) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.genOf(formID) != gen {
		return
	}
	c.pruneLocked(now)
	m := c.entries[formID]
	if m == nil {
		m = make(map[string]cacheEntry)
		c.entries[formID] = m
	}
	if _, exists := m[key]; !exists && len(m) >= maxKeysPerForm {
		c.evictOne(m, now)
	}
	m[key] = cacheEntry{value: value, expires: now.Add(c.ttl)}
}

func (c *resultCache) invalidate(formID uuid.UUID, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	c.gens[formID] = formGen{gen: c.seq, at: now}
	delete(c.entries, formID)
	c.pruneLocked(now)
}

func (c *resultCache) drop(formID uuid.UUID, key string) {
	delete(c.entries[formID], key)
	if len(c.entries[formID]) == 0 {
		delete(c.entries, formID)
	}
}

// evictOne: buang entri kedaluwarsa; kalau masih penuh buang yang paling cepat kedaluwarsa.
func (c *resultCache) evictOne(m map[string]cacheEntry, now time.Time) {
	for k, e := range m {
		if !now.Before(e.expires) {
			delete(m, k)
		}
	}
	if len(m) < maxKeysPerForm {
		return
	}
	victim := ""
	var soonest time.Time
	for k, e := range m {
		if victim == "" || e.expires.Before(soonest) {
			victim, soonest = k, e.expires
		}
	}
	delete(m, victim)
}

// pruneLocked jalan paling sering sekali per ttl: buang entri kedaluwarsa
// dan generasi form yang invalidasinya sudah lewat genMaxAge.
func (c *resultCache) pruneLocked(now time.Time) {
	if now.Before(c.nextPrune) {
		return
	}
	interval := c.ttl
	if interval <= 0 {
		interval = c.genMaxAge
	}
	c.nextPrune = now.Add(interval)

	for formID, m := range c.entries {
		for k, e := range m {
			if !now.Before(e.expires) {
				delete(m, k)
			}
		}
		if len(m) == 0 {
			delete(c.entries, formID)
		}
	}
	for formID, g := range c.gens {
		if now.Sub(g.at) < c.genMaxAge {
			continue
		}
		if _, cached := c.entries[formID]; cached {
			continue
		}
		if g.gen > c.base {
			c.base = g.gen
		}
		delete(c.gens, formID)
	}
}

func (c *resultCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, m := range c.entries {
		n += len(m)
	}
	return n
}

func (c *resultCache) trackedForms() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.gens)
}
