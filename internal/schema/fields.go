// Package schema maps arbitrary spreadsheet headers onto the fixed set of
// standard fields an address record is made of.
package schema

// Field is one of the standard roles a spreadsheet column can play.
type Field int

// Standard fields in enumeration order. Reconciliation visits them in this order.
const (
	ProposalID Field = iota
	Street
	Number
	Complement
	District
	City
	State
	PostalCode
	CustomerName
	PersonType
	TaxID
)

type fieldSpec struct {
	name    string
	aliases []string
}

var specs = [...]fieldSpec{
	ProposalID:   {"Proposta", []string{"proposta", "proposal", "numero_proposta", "proposal_number", "nr_proposta"}},
	Street:       {"Logradouro", []string{"logradouro", "endereco", "rua", "enderecamento", "street"}},
	Number:       {"Número", []string{"numero", "num", "number", "nr", "no"}},
	Complement:   {"Complemento", []string{"complemento", "compl", "complement", "apto", "apartamento", "apartment"}},
	District:     {"Bairro", []string{"bairro", "district", "neighborhood"}},
	City:         {"Cidade", []string{"cidade", "city", "municipio", "town"}},
	State:        {"UF", []string{"uf", "estado", "state", "sigla_uf"}},
	PostalCode:   {"CEP", []string{"cep", "zip", "zipcode", "postal", "postal_code"}},
	CustomerName: {"Cliente", []string{"cliente", "customer", "nome", "name", "nome_cliente", "customer_name"}},
	PersonType:   {"Tipo de Pessoa", []string{"tipo_pessoa", "person_type", "tipo"}},
	TaxID:        {"CPF/CNPJ", []string{"cpf", "cnpj", "cpf_cnpj", "documento", "document", "id"}},
}

var (
	// AddressFields are concatenated, in this order, into the canonical address.
	AddressFields = []Field{Street, Number, Complement, District, City, State, PostalCode}

	// RequiredFields must all be mapped before an analysis can run.
	RequiredFields = []Field{Street, Number, District, City, State, PostalCode}

	// OutputOrder is the column order of exported spreadsheets.
	OutputOrder = []Field{
		ProposalID, Street, District, Number, Complement,
		City, State, PostalCode, CustomerName, PersonType, TaxID,
	}
)

// Fields returns every standard field in enumeration order.
func Fields() []Field {
	out := make([]Field, len(specs))
	for i := range specs {
		out[i] = Field(i)
	}
	return out
}

// Valid reports whether f is one of the standard fields.
func (f Field) Valid() bool {
	return f >= 0 && int(f) < len(specs)
}

// Name returns the display name used as header in exports.
func (f Field) Name() string {
	if !f.Valid() {
		return ""
	}
	return specs[f].name
}

// Example returns the first alias, used in error messages as a hint.
func (f Field) Example() string {
	if !f.Valid() || len(specs[f].aliases) == 0 {
		return ""
	}
	return specs[f].aliases[0]
}

func (f Field) String() string {
	return f.Name()
}

// OutputHeader returns the display names of OutputOrder.
func OutputHeader() []string {
	header := make([]string, len(OutputOrder))
	for i, f := range OutputOrder {
		header[i] = f.Name()
	}
	return header
}
