package models

import (
	"fmt"
	"strings"
)

// MessageType identifies one of the ISO 20022 message families the system understands.
type MessageType int

const (
	UnknownMessageType MessageType = iota
	CreditTransfer
	StatusReport
	Statement
	PaymentInitiation
)

type messageTypeInfo struct {
	code      string
	namespace string
	signature string
	name      string
}

var messageTypeTable = map[MessageType]messageTypeInfo{
	CreditTransfer: {
		code:      "pacs.008",
		namespace: "urn:iso:std:iso:20022:tech:xsd:pacs.008",
		signature: "FIToFICstmrCdtTrf",
		name:      "FIToFICustomerCreditTransfer",
	},
	StatusReport: {
		code:      "pacs.002",
		namespace: "urn:iso:std:iso:20022:tech:xsd:pacs.002",
		signature: "FIToFIPmtStsRpt",
		name:      "FIToFIPaymentStatusReport",
	},
	Statement: {
		code:      "camt.053",
		namespace: "urn:iso:std:iso:20022:tech:xsd:camt.053",
		signature: "BkToCstmrStmt",
		name:      "BankToCustomerStatement",
	},
	PaymentInitiation: {
		code:      "pain.001",
		namespace: "urn:iso:std:iso:20022:tech:xsd:pain.001",
		signature: "CstmrCdtTrfInitn",
		name:      "CustomerCreditTransferInitiation",
	},
}

// MessageTypes returns every supported message type in declaration order.
func MessageTypes() []MessageType {
	return []MessageType{CreditTransfer, StatusReport, Statement, PaymentInitiation}
}

func (t MessageType) Valid() bool {
	_, ok := messageTypeTable[t]
	return ok
}

func (t MessageType) String() string {
	if info, ok := messageTypeTable[t]; ok {
		return info.code
	}
	return "unknown"
}

// Namespace returns the schema URN prefix, without the version suffix.
func (t MessageType) Namespace() string {
	return messageTypeTable[t].namespace
}

// SignatureElement is the root-level element whose presence identifies the type.
func (t MessageType) SignatureElement() string {
	return messageTypeTable[t].signature
}

// MessageName is the ISO 20022 message definition name.
func (t MessageType) MessageName() string {
	return messageTypeTable[t].name
}

func (t MessageType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, &UnknownMessageTypeError{Type: t.String()}
	}
	return []byte(t.String()), nil
}

func (t *MessageType) UnmarshalText(text []byte) error {
	parsed, err := ParseMessageType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseMessageType accepts the short code ("pacs.008"), optionally with a version
// suffix ("pacs.008.001.10").
func ParseMessageType(s string) (MessageType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, t := range MessageTypes() {
		code := t.String()
		if s == code || strings.HasPrefix(s, code+".") {
			return t, nil
		}
	}
	return UnknownMessageType, &UnknownMessageTypeError{Type: s}
}

// Strategy tags one of the three summary-construction approaches. Declaration order is
// the tie-break priority used by the hybrid selector.
type Strategy int

const (
	Simple Strategy = iota
	Context
	Reranker

	numStrategies
)

var strategyNames = [numStrategies]string{"simple", "context", "reranker"}

// Strategies returns all strategies in priority order.
func Strategies() []Strategy {
	return []Strategy{Simple, Context, Reranker}
}

func (s Strategy) Valid() bool {
	return s >= 0 && s < numStrategies
}

func (s Strategy) String() string {
	if !s.Valid() {
		return fmt.Sprintf("strategy(%d)", int(s))
	}
	return strategyNames[s]
}

func (s Strategy) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid strategy %d", int(s))
	}
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func ParseStrategy(name string) (Strategy, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range strategyNames {
		if n == name {
			return Strategy(i), nil
		}
	}
	return 0, fmt.Errorf("unknown strategy %q", name)
}
