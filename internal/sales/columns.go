// Package sales holds the domain model shared by the ingestion pipeline, the
// analytics engine and the storage backends: column names, the typed sale row,
// the clean dataset and the error taxonomy.
package sales

// Column names as they appear in uploaded files and in the persisted table.
const (
	ColID             = "id_transacao"
	ColDate           = "data_venda"
	ColFinalValue     = "valor_final"
	ColSubtotal       = "subtotal"
	ColDiscount       = "desconto_percent"
	ColChannel        = "canal_venda"
	ColPayment        = "forma_pagamento"
	ColCustomerID     = "cliente_id"
	ColCustomerAge    = "idade_cliente"
	ColProductCost    = "custo_produto"
	ColDeliveryStatus = "status_entrega"
	ColRegion         = "regiao"
	ColProduct        = "nome_produto"
	ColCategory       = "categoria"
	ColQuantity       = "quantidade"
	ColCity           = "cidade"
	ColState          = "estado"
	ColGender         = "genero_cliente"
)

// RequiredColumns must all be present for an upload to be accepted.
var RequiredColumns = []string{
	ColID,
	ColDate,
	ColFinalValue,
	ColSubtotal,
	ColDiscount,
	ColChannel,
	ColPayment,
	ColCustomerID,
	ColCustomerAge,
}

// OptionalColumns are tolerated and unlock additional metrics.
var OptionalColumns = []string{
	ColProductCost,
	ColDeliveryStatus,
	ColRegion,
	ColProduct,
	ColCategory,
	ColQuantity,
	ColCity,
	ColState,
	ColGender,
}

// AllColumns is the persisted column order.
var AllColumns = append(append([]string{}, RequiredColumns...), OptionalColumns...)

// ValidChannels lists the accepted canal_venda values after normalization.
var ValidChannels = []string{
	"online",
	"loja física",
	"marketplace",
	"telefone",
	"app mobile",
}

// ValidPaymentMethods lists the accepted forma_pagamento values after normalization.
var ValidPaymentMethods = []string{
	"cartão crédito",
	"cartão débito",
	"pix",
	"boleto",
}

// IsKnownColumn reports whether name is one of the columns the system stores.
func IsKnownColumn(name string) bool {
	for _, c := range AllColumns {
		if c == name {
			return true
		}
	}
	return false
}
