package ofx

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/dinero/internal/model"
)

const sampleBankOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<BANKMSGSRSV1>
<STMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<STMTRS>
<CURDEF>USD
<BANKACCTFROM>
<BANKID>123456789
<ACCTID>1234567890
<ACCTTYPE>CHECKING
</BANKACCTFROM>
<BANKTRANLIST>
<DTSTART>20260101120000[0:GMT]
<DTEND>20260131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260115120000[0:GMT]
<TRNAMT>-25.50
<FITID>2026011501
<NAME>WHOLE FOODS MARKET 123
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260120120000[0:GMT]
<TRNAMT>-18.00
<FITID>2026012001
<NAME>UBER TRIP HELP.UBER.COM
</STMTTRN>
<STMTTRN>
<TRNTYPE>CREDIT
<DTPOSTED>20260125120000[0:GMT]
<TRNAMT>1500.00
<FITID>2026012501
<NAME>PAYROLL DEPOSIT
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>1000.00
<DTASOF>20260131120000[0:GMT]
</LEDGERBAL>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>`

const sampleCreditCardOFX = `OFXHEADER:100
DATA:OFXSGML
VERSION:102
SECURITY:NONE
ENCODING:USASCII
CHARSET:1252
COMPRESSION:NONE
OLDFILEUID:NONE
NEWFILEUID:NONE

<OFX>
<SIGNONMSGSRSV1>
<SONRS>
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<DTSERVER>20260315120000[0:GMT]
<LANGUAGE>ENG
</SONRS>
</SIGNONMSGSRSV1>
<CREDITCARDMSGSRSV1>
<CCSTMTTRNRS>
<TRNUID>1
<STATUS>
<CODE>0
<SEVERITY>INFO
</STATUS>
<CCSTMTRS>
<CURDEF>USD
<CCACCTFROM>
<ACCTID>4111111111111111
</CCACCTFROM>
<BANKTRANLIST>
<DTSTART>20260101120000[0:GMT]
<DTEND>20260131120000[0:GMT]
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260110120000[0:GMT]
<TRNAMT>-15.00
<FITID>CC2026011001
<NAME>NETFLIX.COM
</STMTTRN>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20260112120000[0:GMT]
<TRNAMT>-45.99
<FITID>CC2026011201
<NAME>POS PURCHASE FARMACIA UNIVERSAL
</STMTTRN>
</BANKTRANLIST>
<LEDGERBAL>
<BALAMT>-500.00
<DTASOF>20260131120000[0:GMT]
</LEDGERBAL>
</CCSTMTRS>
</CCSTMTTRNRS>
</CREDITCARDMSGSRSV1>
</OFX>`

func TestParseBankStatement(t *testing.T) {
	parser := NewParser()
	txns, err := parser.ParseFile(context.Background(), strings.NewReader(sampleBankOFX))
	require.NoError(t, err)
	require.Len(t, txns, 3)

	groceries := txns[0]
	assert.Equal(t, model.KindExpense, groceries.Kind)
	assert.Equal(t, 25.50, groceries.Amount)
	assert.Equal(t, "Alimentación", groceries.Category)
	assert.Equal(t, "Tarjeta de Débito", groceries.PaymentMethod)
	assert.Equal(t, time.January, groceries.Date.Month())

	ride := txns[1]
	assert.Equal(t, model.KindExpense, ride.Kind)
	assert.Equal(t, "Transporte", ride.Category)

	payroll := txns[2]
	assert.Equal(t, model.KindIncome, payroll.Kind)
	assert.Equal(t, 1500.00, payroll.Amount)
	assert.Equal(t, "Transferencia", payroll.PaymentMethod)
}

func TestParseCreditCardStatement(t *testing.T) {
	parser := NewParser()
	txns, err := parser.ParseFile(context.Background(), strings.NewReader(sampleCreditCardOFX))
	require.NoError(t, err)
	require.Len(t, txns, 2)

	for _, txn := range txns {
		assert.Equal(t, model.KindExpense, txn.Kind)
		assert.Equal(t, "Tarjeta de Crédito", txn.PaymentMethod)
	}
	assert.Equal(t, "Entretenimiento", txns[0].Category)
	assert.Equal(t, "Salud", txns[1].Category)
	assert.Equal(t, "FARMACIA UNIVERSAL", txns[1].Memo, "processor prefix should be stripped")
}

func TestParseInvalidFile(t *testing.T) {
	parser := NewParser()
	_, err := parser.ParseFile(context.Background(), strings.NewReader("not an ofx file"))
	assert.Error(t, err)
}

func TestGuessCategoryFallback(t *testing.T) {
	assert.Equal(t, "Otros", guessCategory(model.KindExpense, "MYSTERY VENDOR 42", "DEBIT"))
	assert.Equal(t, "Inversiones", guessCategory(model.KindIncome, "INTEREST PAID", "INT"))
	assert.Equal(t, "Otros", guessCategory(model.KindIncome, "REFUND", "CREDIT"))
}
