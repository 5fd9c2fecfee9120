package memstore

import (
	"context"
	"sort"
	"sync"

	"onion_chat/internal/model"
	"onion_chat/internal/store"
)

type (
	// Store is an in-memory implementation of the store contracts, used by
	// tests and by the database-less run mode. A single mutex per concern
	// keeps appends linearized; readers always get copies.
	Store struct {
		contactMu sync.RWMutex
		contacts  map[string]*model.Contact
		primary   *model.PrimaryUser

		convoMu sync.RWMutex
		convos  map[string]*model.Conversation
		convoID int64

		msgMu sync.RWMutex
		msgs  map[string][]*model.Message
		msgID int64
	}
)

func New() *Store {
	return &Store{
		contacts: make(map[string]*model.Contact),
		convos:   make(map[string]*model.Conversation),
		msgs:     make(map[string][]*model.Message),
	}
}

func (s *Store) InsertContact(_ context.Context, contact *model.Contact) error {
	s.contactMu.Lock()
	defer s.contactMu.Unlock()

	if _, ok := s.contacts[contact.Name]; ok {
		return store.ErrDuplicateKey
	}

	c := *contact
	c.Key = append([]byte(nil), contact.Key...)
	s.contacts[contact.Name] = &c
	return nil
}

func (s *Store) GetContact(_ context.Context, name string) (*model.Contact, error) {
	s.contactMu.RLock()
	defer s.contactMu.RUnlock()

	c, ok := s.contacts[name]
	if !ok {
		return nil, store.ErrNotFound
	}

	cp := *c
	return &cp, nil
}

func (s *Store) ListContacts(_ context.Context) ([]*model.Contact, error) {
	s.contactMu.RLock()
	defer s.contactMu.RUnlock()

	res := make([]*model.Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		cp := *c
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (s *Store) UpdateContactAddress(_ context.Context, name, address string) error {
	s.contactMu.Lock()
	defer s.contactMu.Unlock()

	c, ok := s.contacts[name]
	if !ok {
		return store.ErrNotFound
	}
	c.Address = address
	return nil
}

func (s *Store) InsertPrimaryUser(_ context.Context, user *model.PrimaryUser) error {
	s.contactMu.Lock()
	defer s.contactMu.Unlock()

	if s.primary != nil {
		return store.ErrDuplicateKey
	}

	u := *user
	u.ID = model.PrimaryUserID
	s.primary = &u
	return nil
}

func (s *Store) GetPrimaryUser(_ context.Context) (*model.PrimaryUser, error) {
	s.contactMu.RLock()
	defer s.contactMu.RUnlock()

	if s.primary == nil {
		return nil, store.ErrNotFound
	}

	u := *s.primary
	return &u, nil
}

func (s *Store) UpdatePrimaryUserAddress(_ context.Context, address string) error {
	s.contactMu.Lock()
	defer s.contactMu.Unlock()

	if s.primary == nil {
		return store.ErrNotFound
	}
	s.primary.Address = address
	return nil
}

func (s *Store) InsertConversation(_ context.Context, contactName, conversationName string) (*model.Conversation, error) {
	s.convoMu.Lock()
	defer s.convoMu.Unlock()

	if _, ok := s.convos[conversationName]; ok {
		return nil, store.ErrDuplicateKey
	}

	s.convoID++
	convo := &model.Conversation{
		ID:               s.convoID,
		ContactName:      contactName,
		ConversationName: conversationName,
	}
	s.convos[conversationName] = convo

	cp := *convo
	return &cp, nil
}

func (s *Store) GetConversation(_ context.Context, conversationName string) (*model.Conversation, error) {
	s.convoMu.RLock()
	defer s.convoMu.RUnlock()

	convo, ok := s.convos[conversationName]
	if !ok {
		return nil, store.ErrNotFound
	}

	cp := *convo
	return &cp, nil
}

func (s *Store) ListConversations(_ context.Context) ([]*model.Conversation, error) {
	s.convoMu.RLock()
	defer s.convoMu.RUnlock()

	res := make([]*model.Conversation, 0, len(s.convos))
	for _, convo := range s.convos {
		cp := *convo
		res = append(res, &cp)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *Store) AppendMessage(_ context.Context, message *model.Message) error {
	s.msgMu.Lock()
	defer s.msgMu.Unlock()

	s.msgID++
	m := *message
	m.ID = s.msgID
	m.Seq = s.msgID
	s.msgs[m.ConversationName] = append(s.msgs[m.ConversationName], &m)

	*message = m
	return nil
}

func (s *Store) ListMessages(_ context.Context, conversationName string) ([]*model.Message, error) {
	s.msgMu.RLock()
	defer s.msgMu.RUnlock()

	msgs := s.msgs[conversationName]
	res := make([]*model.Message, 0, len(msgs))
	for _, m := range msgs {
		cp := *m
		res = append(res, &cp)
	}
	sort.SliceStable(res, func(i, j int) bool {
		if res[i].Timestamp != res[j].Timestamp {
			return res[i].Timestamp < res[j].Timestamp
		}
		return res[i].Seq < res[j].Seq
	})
	return res, nil
}
