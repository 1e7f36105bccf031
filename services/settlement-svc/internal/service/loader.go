package service

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"splitit/pkg/apperror"
	"splitit/pkg/domain"
)

// LoadPaymentsFile читает платежи из YAML файла
func LoadPaymentsFile(path string) ([]domain.Payment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "cannot open payments file").
			WithDetails("path", path)
	}
	defer f.Close()

	return LoadPayments(f)
}

// LoadPayments читает платежи из YAML: список {name, paid}, тот же список
// под ключом payments или отображение "имя: сумма". Порядок сохраняется.
func LoadPayments(r io.Reader) ([]domain.Payment, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, apperror.New(apperror.CodeEmptyInput, "payments file is empty")
		}
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "cannot parse payments file")
	}

	if len(doc.Content) == 0 {
		return nil, apperror.New(apperror.CodeEmptyInput, "payments file is empty")
	}

	root := doc.Content[0]
	switch root.Kind {
	case yaml.SequenceNode:
		return decodeList(root)
	case yaml.MappingNode:
		if list := mappingValue(root, "payments"); list != nil {
			return decodeList(list)
		}
		return decodeMapping(root)
	default:
		return nil, apperror.Newf(apperror.CodeInvalidArgument,
			"payments must be a list or a mapping (line %d)", root.Line)
	}
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func decodeList(node *yaml.Node) ([]domain.Payment, error) {
	var payments []domain.Payment
	if err := node.Decode(&payments); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "invalid payments list")
	}
	return payments, nil
}

// decodeMapping читает форму "имя: сумма" в порядке ключей документа
func decodeMapping(node *yaml.Node) ([]domain.Payment, error) {
	payments := make([]domain.Payment, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var paid float64
		if err := value.Decode(&paid); err != nil {
			return nil, apperror.Newf(apperror.CodeInvalidAmount,
				"invalid amount for %q at line %d", key.Value, value.Line).
				WithField("paid")
		}
		payments = append(payments, domain.Payment{Name: key.Value, Paid: paid})
	}
	return payments, nil
}

// ParsePairs разбирает аргументы вида "name=amount"
func ParsePairs(args []string) ([]domain.Payment, error) {
	payments := make([]domain.Payment, 0, len(args))
	for _, arg := range args {
		name, amount, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, apperror.New(apperror.CodeInvalidArgument,
				fmt.Sprintf("expected name=amount, got %q", arg))
		}

		paid, err := strconv.ParseFloat(strings.TrimSpace(amount), 64)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeInvalidAmount,
				fmt.Sprintf("invalid amount in %q", arg)).WithField("paid")
		}

		payments = append(payments, domain.Payment{Name: strings.TrimSpace(name), Paid: paid})
	}
	return payments, nil
}
