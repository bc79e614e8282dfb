package cart

import "sync"

// Session guards one POS session's cart.
type Session struct {
	mu     sync.Mutex
	cart   *Cart
	closed bool
}

// Do runs fn with exclusive access to the cart.
func (s *Session) Do(fn func(c *Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.cart)
}

// Sessions holds one cart per POS session id. A session exists only while its
// cart holds lines or a customer name.
type Sessions struct {
	mu       sync.Mutex
	stock    StockLookup
	sessions map[string]*Session
}

func NewSessions(stock StockLookup) *Sessions {
	return &Sessions{
		stock:    stock,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, opening an empty cart on first use.
func (s *Sessions) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		sess = &Session{cart: New(s.stock)}
		s.sessions[id] = sess
	}
	return sess
}

// Do runs fn on the cart of id, opening the session if needed, then releases
// the session if fn left the cart blank.
func (s *Sessions) Do(id string, fn func(c *Cart)) {
	for {
		sess := s.Get(id)
		sess.mu.Lock()
		if sess.closed {
			// Released between Get and Lock; retry on a fresh session.
			sess.mu.Unlock()
			continue
		}
		fn(sess.cart)
		blank := sess.cart.IsEmpty() && sess.cart.Customer() == ""
		if blank {
			sess.closed = true
		}
		sess.mu.Unlock()

		if blank {
			s.remove(id, sess)
		}
		return
	}
}

// View runs fn on the cart of id without opening a session. It reports false
// and does not call fn when no session exists.
func (s *Sessions) View(id string, fn func(c *Cart)) bool {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	s.mu.Unlock()
	if !ok {
		return false
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.closed {
		return false
	}
	fn(sess.cart)
	return true
}

// Drop abandons the session's cart.
func (s *Sessions) Drop(id string) {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()

	if ok {
		sess.mu.Lock()
		sess.closed = true
		sess.mu.Unlock()
	}
}

func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) remove(id string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions[id] == sess {
		delete(s.sessions, id)
	}
}
