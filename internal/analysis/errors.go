package analysis

import (
	"errors"

	"github.com/hyperjump/duplo/internal/schema"
	"github.com/hyperjump/duplo/internal/sheet"
	"github.com/hyperjump/duplo/internal/taskstore"
)

var (
	ErrEmptyFilename     = errors.New("empty filename")
	ErrUnreadableHeaders = errors.New("header row is missing or blank")
	ErrEmptySheet        = errors.New("sheet has no data rows")
)

// Kind classifies an error by who can act on it.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalid
	KindNotFound
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindUnavailable:
		return "unavailable"
	default:
		return "error"
	}
}

// User-facing messages. The frontend is in Portuguese.
const (
	msgEmptyFilename     = "Nome de arquivo vazio"
	msgUnsupportedFormat = "Formato de arquivo inválido. Envie .xlsx ou .xls"
	msgUnreadableHeaders = "Falha ao ler os cabeçalhos corretamente. Verifique se a segunda linha do arquivo contém os nomes das colunas."
	msgEmptySheet        = "O arquivo enviado está vazio ou não pôde ser lido corretamente."
	msgNotFound          = "Resultados não encontrados ou expirados. Por favor, processe o arquivo novamente."
	msgUnavailable       = "Serviço de armazenamento indisponível. Tente novamente mais tarde."
	msgInternal          = "Erro interno ao processar a solicitação."
)

// Classify maps err to its Kind and the message safe to show a user.
// Unknown errors are KindInternal with a generic message.
func Classify(err error) (Kind, string) {
	var missing *schema.MissingFieldsError
	switch {
	case err == nil:
		return KindInternal, ""
	case errors.As(err, &missing):
		return KindInvalid, missing.Error()
	case errors.Is(err, ErrEmptyFilename):
		return KindInvalid, msgEmptyFilename
	case errors.Is(err, sheet.ErrUnsupportedFormat):
		return KindInvalid, msgUnsupportedFormat
	case errors.Is(err, ErrUnreadableHeaders):
		return KindInvalid, msgUnreadableHeaders
	case errors.Is(err, ErrEmptySheet), errors.Is(err, sheet.ErrUnreadable):
		return KindInvalid, msgEmptySheet
	case errors.Is(err, taskstore.ErrNotFound):
		return KindNotFound, msgNotFound
	case errors.Is(err, taskstore.ErrUnavailable):
		return KindUnavailable, msgUnavailable
	default:
		return KindInternal, msgInternal
	}
}
