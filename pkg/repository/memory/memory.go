package memory

import (
	"github.com/secmon-lab/cottus/pkg/domain/interfaces"
)

// Memory keeps all state for the lifetime of the process
type Memory struct {
	company      *companyRepository
	ticket       *ticketRepository
	conversation *conversationRepository
	tokens       *tokenStore
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		company:      newCompanyRepository(),
		ticket:       newTicketRepository(),
		conversation: newConversationRepository(),
		tokens:       newTokenStore(),
	}
}

func (m *Memory) Company() interfaces.CompanyRepository {
	return m.company
}

func (m *Memory) Ticket() interfaces.TicketRepository {
	return m.ticket
}

func (m *Memory) Conversation() interfaces.ConversationRepository {
	return m.conversation
}

func (m *Memory) Close() error {
	return nil
}
