package actors

import "actornet/session"

// subscribers is a sparse set of sessions keyed by session id with a fixed
// id capacity. Membership is O(1) and iteration only touches members.
type subscribers struct {
	dense  []session.Session
	sparse []int
}

func newSubscribers(capacity int) *subscribers {
	return &subscribers{sparse: make([]int, capacity)}
}

func (s *subscribers) valid(id int) bool {
	if id < 0 || id >= len(s.sparse) {
		return false
	}
	i := s.sparse[id]
	return i < len(s.dense) && s.dense[i].ID() == id
}

func (s *subscribers) add(sess session.Session) bool {
	id := sess.ID()
	if id < 0 || id >= len(s.sparse) || s.valid(id) {
		return false
	}
	s.sparse[id] = len(s.dense)
	s.dense = append(s.dense, sess)
	return true
}

func (s *subscribers) remove(id int) bool {
	if !s.valid(id) {
		return false
	}
	i := s.sparse[id]
	last := len(s.dense) - 1
	moved := s.dense[last]
	s.dense[i] = moved
	s.sparse[moved.ID()] = i
	s.dense[last] = nil
	s.dense = s.dense[:last]
	return true
}

// entries is only valid until the next add or remove.
func (s *subscribers) entries() []session.Session {
	return s.dense
}

func (s *subscribers) len() int {
	return len(s.dense)
}

func (s *subscribers) clear() {
	for i := range s.dense {
		s.dense[i] = nil
	}
	s.dense = s.dense[:0]
}
