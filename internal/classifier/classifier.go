package classifier

import (
	"strings"

	"github.com/gadeShivani/iso20022-rag/internal/models"
)

type Classifier interface {
	Classify(xmlText string) (models.MessageType, error)
}

// StructuralClassifier detects the message family from the presence of a signature
// element at the top of the document. It does not validate against the XSD.
type StructuralClassifier struct {
	types []models.MessageType
}

func NewStructuralClassifier() *StructuralClassifier {
	return &StructuralClassifier{types: models.MessageTypes()}
}

func (c *StructuralClassifier) Classify(xmlText string) (models.MessageType, error) {
	root, err := Parse(xmlText)
	if err != nil {
		return models.UnknownMessageType, err
	}
	return c.ClassifyTree(root)
}

// ClassifyTree tests every signature. Signatures must be mutually exclusive: when more
// than one matches the document is rejected rather than resolved by testing order.
func (c *StructuralClassifier) ClassifyTree(root *Element) (models.MessageType, error) {
	var matches []models.MessageType
	for _, t := range c.types {
		if hasSignature(root, t.SignatureElement()) {
			matches = append(matches, t)
		}
	}

	if len(matches) != 1 {
		return models.UnknownMessageType, &models.UnrecognizedSchemaError{
			Root:       root.Name.Local,
			Candidates: matches,
		}
	}
	return matches[0], nil
}

func hasSignature(root *Element, signature string) bool {
	if root.Name.Local == signature {
		return true
	}
	for _, child := range root.Children {
		if child.Name.Local == signature {
			return true
		}
	}
	return false
}

var defaultClassifier = NewStructuralClassifier()

// Classify parses xmlText and returns its message type.
func Classify(xmlText string) (models.MessageType, error) {
	return defaultClassifier.Classify(xmlText)
}

func ClassifyTree(root *Element) (models.MessageType, error) {
	return defaultClassifier.ClassifyTree(root)
}

// ParseDocument parses and classifies in one call, returning the tree for extraction.
func ParseDocument(xmlText string) (*Element, models.MessageType, error) {
	root, err := Parse(xmlText)
	if err != nil {
		return nil, models.UnknownMessageType, err
	}
	t, err := ClassifyTree(root)
	if err != nil {
		return nil, models.UnknownMessageType, err
	}
	return root, t, nil
}

// NamespaceHint maps the root namespace URN to a message type. It is a hint only;
// classification never depends on it.
func NamespaceHint(root *Element) (models.MessageType, bool) {
	if root == nil || root.Name.Space == "" {
		return models.UnknownMessageType, false
	}
	for _, t := range models.MessageTypes() {
		if strings.HasPrefix(root.Name.Space, t.Namespace()) {
			return t, true
		}
	}
	return models.UnknownMessageType, false
}
