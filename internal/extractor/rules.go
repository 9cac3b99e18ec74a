package extractor

import "github.com/gadeShivani/iso20022-rag/internal/models"

// Rule describes how one record field is located. Paths are tried in order and the
// first one yielding a non-blank value wins. When Attr is set the value is read from
// that attribute of the located element instead of its text.
type Rule struct {
	Field    string
	Paths    []string
	Attr     string
	Required bool
}

func required(field string, paths ...string) Rule {
	return Rule{Field: field, Paths: paths, Required: true}
}

func optional(field string, paths ...string) Rule {
	return Rule{Field: field, Paths: paths}
}

func requiredAttr(field, attr string, paths ...string) Rule {
	return Rule{Field: field, Paths: paths, Attr: attr, Required: true}
}

// Schema is the extraction table for one message type.
type Schema struct {
	Rules []Rule

	// EntryPath selects repeated sub-records; EntryRules apply relative to each one.
	EntryPath  string
	EntryRules []Rule
}

var headerRules = []Rule{
	required(models.FieldMessageID, "GrpHdr/MsgId", "MsgId"),
	required(models.FieldCreatedAt, "GrpHdr/CreDtTm", "CreDtTm"),
}

var schemas = map[models.MessageType]Schema{
	models.CreditTransfer: {
		Rules: []Rule{
			required("amount", "TtlIntrBkSttlmAmt", "IntrBkSttlmAmt"),
			requiredAttr("currency", "Ccy", "TtlIntrBkSttlmAmt", "IntrBkSttlmAmt"),
			required("debtor_name", "Dbtr/Nm"),
			required("creditor_name", "Cdtr/Nm"),
			required("debtor_bank", "DbtrAgt//BICFI"),
			required("creditor_bank", "CdtrAgt//BICFI"),
			optional("charge_bearer", "ChrgBr"),
			optional("purpose", "RmtInf/Ustrd"),
			optional("number_of_transactions", "GrpHdr/NbOfTxs"),
			optional("end_to_end_id", "PmtId/EndToEndId"),
			optional("exchange_rate", "XchgRate"),
			optional("debtor_country", "Dbtr/PstlAdr/Ctry"),
			optional("creditor_country", "Cdtr/PstlAdr/Ctry"),
			optional("debtor_lei", "Dbtr//LEI"),
			optional("creditor_lei", "Cdtr//LEI"),
			optional("regulatory_code", "RgltryRptg//Cd"),
		},
	},
	models.StatusReport: {
		Rules: []Rule{
			required("original_message_id", "OrgnlMsgId"),
			required("original_message_type", "OrgnlMsgNmId"),
			required("group_status", "GrpSts"),
			optional("status_reason", "StsRsnInf/Rsn/Cd", "StsRsnInf/Rsn/Prtry"),
		},
	},
	models.Statement: {
		Rules: []Rule{
			required("statement_id", "Stmt/Id"),
			required("account_id", "Stmt/Acct/Id/IBAN", "Stmt/Acct/Id/Othr/Id"),
			required("balance_amount", "Stmt/Bal/Amt"),
			requiredAttr("balance_currency", "Ccy", "Stmt/Bal/Amt"),
			optional("balance_type", "Stmt/Bal/Tp/CdOrPrtry/Cd"),
		},
		EntryPath: "Stmt/Ntry",
		EntryRules: []Rule{
			required("amount", "Amt"),
			requiredAttr("currency", "Ccy", "Amt"),
			required("credit_debit", "CdtDbtInd"),
			required("status", "Sts", "Sts/Cd"),
			required("booking_date", "BookgDt/DtTm", "BookgDt/Dt"),
			optional("entry_reference", "NtryRef"),
		},
	},
	models.PaymentInitiation: {
		Rules: []Rule{
			required("initiator_name", "InitgPty/Nm"),
			required("payment_method", "PmtInf/PmtMtd"),
			required("execution_date", "PmtInf/ReqdExctnDt", "PmtInf/ReqdExctnDt/Dt", "PmtInf/ReqdExctnDt/DtTm"),
			required("debtor_name", "Dbtr/Nm"),
			required("debtor_account", "DbtrAcct/Id/IBAN", "DbtrAcct/Id/Othr/Id"),
			required("amount", "InstdAmt"),
			requiredAttr("currency", "Ccy", "InstdAmt"),
			required("creditor_name", "Cdtr/Nm"),
			required("creditor_account", "CdtrAcct/Id/IBAN", "CdtrAcct/Id/Othr/Id"),
			optional("purpose", "RmtInf/Ustrd"),
			optional("end_to_end_id", "PmtId/EndToEndId"),
			optional("charge_bearer", "ChrgBr"),
		},
	},
}

// SchemaFor returns the extraction table for t.
func SchemaFor(t models.MessageType) (Schema, bool) {
	s, ok := schemas[t]
	return s, ok
}

// RequiredFields lists the mandatory message-level fields for t, header included.
func RequiredFields(t models.MessageType) []string {
	s, ok := schemas[t]
	if !ok {
		return nil
	}
	fields := []string{models.FieldMessageType}
	for _, r := range append(append([]Rule(nil), headerRules...), s.Rules...) {
		if r.Required {
			fields = append(fields, r.Field)
		}
	}
	return fields
}

// RequiredEntryFields lists the mandatory fields of each repeated sub-record.
func RequiredEntryFields(t models.MessageType) []string {
	var fields []string
	for _, r := range schemas[t].EntryRules {
		if r.Required {
			fields = append(fields, r.Field)
		}
	}
	return fields
}
