package uploadsvc

import "sync"

// gate хранит состояние одной сессии: сколько частей принимается сейчас
// и идёт ли эксклюзивная операция (сборка или удаление GC).
type gate struct {
	admitting int
	exclusive bool
}

// gates — неблокирующее взаимное исключение по id сессии.
// Приёмы частей совместимы друг с другом, сборка исключает всё остальное.
type gates struct {
	mu sync.Mutex
	m  map[string]*gate
}

func newGates() *gates {
	return &gates{m: make(map[string]*gate)}
}

// acquireShared регистрирует приём части. false — сессия занята сборкой.
func (g *gates) acquireShared(id string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.m[id]
	if st == nil {
		st = &gate{}
		g.m[id] = st
	}
	if st.exclusive {
		return nil, false
	}
	st.admitting++

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			st.admitting--
			g.dropIdleLocked(id, st)
		})
	}, true
}

// acquireExclusive захватывает сессию целиком. false — идут приёмы или другая сборка.
func (g *gates) acquireExclusive(id string) (func(), bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.m[id]
	if st == nil {
		st = &gate{}
		g.m[id] = st
	}
	if st.exclusive || st.admitting > 0 {
		return nil, false
	}
	st.exclusive = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			st.exclusive = false
			g.dropIdleLocked(id, st)
		})
	}, true
}

func (g *gates) dropIdleLocked(id string, st *gate) {
	if st.admitting == 0 && !st.exclusive && g.m[id] == st {
		delete(g.m, id)
	}
}

func (g *gates) len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.m)
}
