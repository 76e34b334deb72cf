// Package ofx imports bank and credit card statements in OFX/QFX format
// into ledger transactions.
package ofx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/aclindsa/ofxgo"

	"github.com/Veraticus/dinero/internal/model"
)

// Parser converts OFX/QFX statements into ledger transactions.
type Parser struct{}

// NewParser creates a new OFX parser.
func NewParser() *Parser {
	return &Parser{}
}

// preprocessOFX fixes common formatting issues in real-world OFX files.
func (p *Parser) preprocessOFX(content string) string {
	content = strings.TrimLeft(content, " \t\r\n")

	// Fix mixed-case SEVERITY values (should be INFO, WARN, or ERROR)
	severityRegex := regexp.MustCompile(`(?i)<SEVERITY>(Info|Warn|Error)</SEVERITY>`)
	content = severityRegex.ReplaceAllStringFunc(content, strings.ToUpper)

	// Fix missing closing angle brackets in SGML-style OFX files
	tagFixRegex := regexp.MustCompile(`(?m)^(\s*<[A-Z][A-Z0-9._]*[A-Z0-9])$`)
	content = tagFixRegex.ReplaceAllString(content, "$1>")

	return content
}

// ParseFile parses an OFX/QFX file and returns ledger transactions.
// Credits become income, debits become expenses; the statement type
// decides the payment method.
func (p *Parser) ParseFile(_ context.Context, reader io.Reader) ([]model.Transaction, error) {
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX file: %w", err)
	}

	resp, err := ofxgo.ParseResponse(strings.NewReader(p.preprocessOFX(string(content))))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX file: %w", err)
	}

	var transactions []model.Transaction
	var bankStmts, ccStmts int

	for _, msg := range resp.Bank {
		if stmt, ok := msg.(*ofxgo.StatementResponse); ok {
			bankStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convertTransaction(ofxTx, "Tarjeta de Débito"))
			}
		}
	}

	for _, msg := range resp.CreditCard {
		if stmt, ok := msg.(*ofxgo.CCStatementResponse); ok {
			ccStmts++
			if stmt.BankTranList == nil {
				continue
			}
			for _, ofxTx := range stmt.BankTranList.Transactions {
				transactions = append(transactions, p.convertTransaction(ofxTx, "Tarjeta de Crédito"))
			}
		}
	}

	slog.Info("Parsed OFX file",
		"total_transactions", len(transactions),
		"bank_statements", bankStmts,
		"cc_statements", ccStmts)

	return transactions, nil
}

// convertTransaction maps one OFX transaction into the ledger model.
func (p *Parser) convertTransaction(ofxTx ofxgo.Transaction, paymentMethod string) model.Transaction {
	amount, _ := ofxTx.TrnAmt.Float64()

	kind := model.KindExpense
	if amount > 0 {
		kind = model.KindIncome
	}
	if amount < 0 {
		amount = -amount
	}

	memo := p.extractDescription(ofxTx)

	txn := model.Transaction{
		Date:          ofxTx.DtPosted.Time,
		Kind:          kind,
		Category:      guessCategory(kind, memo, fmt.Sprintf("%v", ofxTx.TrnType)),
		PaymentMethod: paymentMethod,
		Memo:          memo,
		Amount:        amount,
	}
	if kind == model.KindIncome && txn.PaymentMethod == "Tarjeta de Débito" {
		txn.PaymentMethod = "Transferencia"
	}
	return txn
}

// extractDescription picks the most useful descriptive text from the OFX
// fields and strips common processor prefixes.
func (p *Parser) extractDescription(tx ofxgo.Transaction) string {
	if tx.Payee != nil && tx.Payee.Name != "" {
		return string(tx.Payee.Name)
	}

	name := string(tx.Name)
	if tx.Memo != "" && isGenericDescription(name) {
		name = string(tx.Memo)
	}
	name = strings.TrimSpace(name)

	prefixes := []string{
		"POS PURCHASE ",
		"PURCHASE AUTHORIZED ON ",
		"DEBIT CARD PURCHASE ",
		"ACH DEBIT ",
		"CHECK CARD ",
		"VISA PURCHASE ",
		"MC PURCHASE ",
		"DEBIT PURCHASE ",
	}
	for _, prefix := range prefixes {
		if strings.HasPrefix(strings.ToUpper(name), prefix) {
			name = name[len(prefix):]
			break
		}
	}

	// Strip leading MM/DD date stamps.
	if len(name) > 5 && name[2] == '/' && name[5] == ' ' {
		name = strings.TrimSpace(name[6:])
	}

	return name
}

// categoryHints maps description keywords to expense categories.
var categoryHints = []struct {
	keyword  string
	category string
}{
	{"market", "Alimentación"},
	{"super", "Alimentación"},
	{"restaurant", "Alimentación"},
	{"grocer", "Alimentación"},
	{"uber", "Transporte"},
	{"taxi", "Transporte"},
	{"gas", "Transporte"},
	{"pharmac", "Salud"},
	{"farmacia", "Salud"},
	{"clinic", "Salud"},
	{"netflix", "Entretenimiento"},
	{"spotify", "Entretenimiento"},
	{"cinema", "Entretenimiento"},
	{"electric", "Servicios"},
	{"internet", "Servicios"},
	{"phone", "Servicios"},
}

// guessCategory infers a vocabulary category from the transaction type
// and description. OFX carries no category data, so unmatched expenses
// land in Otros.
func guessCategory(kind model.TransactionKind, description, trnType string) string {
	if kind == model.KindIncome {
		if trnType == "INT" {
			return "Inversiones"
		}
		return "Otros"
	}

	lower := strings.ToLower(description)
	for _, hint := range categoryHints {
		if strings.Contains(lower, hint.keyword) {
			return hint.category
		}
	}
	return "Otros"
}

// isGenericDescription reports whether a transaction name carries no
// merchant information.
func isGenericDescription(name string) bool {
	generic := []string{
		"DEBIT",
		"CREDIT",
		"PURCHASE",
		"PAYMENT",
		"POS TRANSACTION",
		"CARD PURCHASE",
	}
	upperName := strings.ToUpper(name)
	for _, g := range generic {
		if upperName == g {
			return true
		}
	}
	return false
}
