package schema

import (
	"encoding/json"
	"fmt"
	"strings"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stanford-oval/thingtalk-go/thingtalk"
	"github.com/stanford-oval/thingtalk-go/thingtalk/ast"
)

// BadgerClassStore is an optional persistent backing for resolved
// ClassDefs: a single badger.DB, one key per kind, json-encoded values
// (a ClassDef's FunctionDef payloads have no natural fixed-width
// binary layout, so plain JSON beats a custom codec here). It exists
// for resolver deployments that want
// get_full_class/inject_class to survive a process restart; the
// default in-memory Resolver never touches it.
type BadgerClassStore struct {
	db *badger.DB
}

// OpenBadgerClassStore opens (creating if necessary) a BadgerDB at
// path.
func OpenBadgerClassStore(path string) (*BadgerClassStore, error) {
	opts := badger.DefaultOptions(path)
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("opening badger class store at %s: %w", path, err)
	}
	return &BadgerClassStore{db: db}, nil
}

// Close closes the underlying database.
func (s *BadgerClassStore) Close() error {
	return s.db.Close()
}

// Put persists class under its kind.
func (s *BadgerClassStore) Put(class *ast.ClassDef) error {
	value, err := json.Marshal(encodeClass(class))
	if err != nil {
		return fmt.Errorf("encoding class %s: %w", class.Kind, err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(class.Kind), value)
	})
}

// Get loads the ClassDef stored under kind, or (nil, false) if absent.
func (s *BadgerClassStore) Get(kind string) (*ast.ClassDef, bool, error) {
	var rec classRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(kind))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err == badger.ErrKeyNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading class %s: %w", kind, err)
	}
	return decodeClass(rec), true, nil
}

// Delete removes kind's stored class, if present.
func (s *BadgerClassStore) Delete(kind string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		err := txn.Delete([]byte(kind))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		return err
	})
}

// classRecord is the JSON wire shape for a persisted ClassDef.
// ConfigExtra (a map of arbitrary thingtalk.Value) is dropped from
// persistence since its values aren't JSON-serializable without a
// second tagged-variant codec this store has no need to carry.
// Argument types are stored in their canonical Type.String() form and
// re-parsed on load; a Compound or TypeVar type — neither appears in a
// provider-served signature today — falls back to Any, and deployments
// that need full fidelity should re-resolve from Provider instead.
type classRecord struct {
	Kind       string                    `json:"kind"`
	Extends    []string                  `json:"extends"`
	Queries    map[string]functionRecord `json:"queries"`
	Actions    map[string]functionRecord `json:"actions"`
	Streams    map[string]functionRecord `json:"streams"`
	LoaderKind string                    `json:"loader_kind"`
}

type functionRecord struct {
	Kind          string           `json:"kind"`
	Name          string           `json:"name"`
	QualifiedName string           `json:"qualified_name"`
	FunctionKind  int              `json:"function_kind"`
	IsList        bool             `json:"is_list,omitempty"`
	IsMonitorable bool             `json:"is_monitorable,omitempty"`
	Args          []argumentRecord `json:"args"`
}

type argumentRecord struct {
	Name        string                  `json:"name"`
	Direction   int                     `json:"direction"`
	Type        string                  `json:"type"`
	Annotations ast.ArgumentAnnotations `json:"annotations"`
}

func encodeClass(class *ast.ClassDef) classRecord {
	return classRecord{
		Kind:       class.Kind,
		Extends:    class.Extends,
		Queries:    encodeFunctions(class.Queries),
		Actions:    encodeFunctions(class.Actions),
		Streams:    encodeFunctions(class.Streams),
		LoaderKind: class.LoaderKind,
	}
}

func encodeFunctions(table map[string]*ast.FunctionDef) map[string]functionRecord {
	out := make(map[string]functionRecord, len(table))
	for name, f := range table {
		rec := functionRecord{
			Kind:          f.Kind,
			Name:          f.Name,
			QualifiedName: f.QualifiedName,
			FunctionKind:  int(f.FunctionKind),
			IsList:        f.IsList,
			IsMonitorable: f.IsMonitorable,
		}
		for _, a := range f.Args {
			typeText := ""
			if a.Type != nil {
				typeText = a.Type.String()
			}
			rec.Args = append(rec.Args, argumentRecord{
				Name:        a.Name,
				Direction:   int(a.Direction),
				Type:        typeText,
				Annotations: a.Annotations,
			})
		}
		out[name] = rec
	}
	return out
}

func decodeClass(rec classRecord) *ast.ClassDef {
	return &ast.ClassDef{
		Kind:       rec.Kind,
		Extends:    rec.Extends,
		Queries:    decodeFunctions(rec.Queries),
		Actions:    decodeFunctions(rec.Actions),
		Streams:    decodeFunctions(rec.Streams),
		LoaderKind: rec.LoaderKind,
	}
}

func decodeFunctions(table map[string]functionRecord) map[string]*ast.FunctionDef {
	out := make(map[string]*ast.FunctionDef, len(table))
	for name, rec := range table {
		f := &ast.FunctionDef{
			Kind:          rec.Kind,
			Name:          rec.Name,
			QualifiedName: rec.QualifiedName,
			FunctionKind:  ast.FunctionKind(rec.FunctionKind),
			IsList:        rec.IsList,
			IsMonitorable: rec.IsMonitorable,
		}
		for _, a := range rec.Args {
			f.Args = append(f.Args, ast.FunctionArgument{
				Name:        a.Name,
				Direction:   ast.Direction(a.Direction),
				Type:        parseTypeText(a.Type),
				Annotations: a.Annotations,
			})
		}
		out[name] = f
	}
	return out
}

// parseTypeText inverts Type.String() for the type shapes a provider
// signature carries.
func parseTypeText(s string) thingtalk.Type {
	switch s {
	case "":
		return nil
	case "Boolean":
		return thingtalk.Boolean
	case "String":
		return thingtalk.Str
	case "Number":
		return thingtalk.Number
	case "Currency":
		return thingtalk.Currency
	case "Date":
		return thingtalk.Date
	case "Time":
		return thingtalk.Time
	case "RecurrentTimeSpecification":
		return thingtalk.RecurrentTimeSpecification
	case "Location":
		return thingtalk.Location
	case "ArgMap":
		return thingtalk.ArgMap
	case "Any":
		return thingtalk.Any
	}
	if inner, ok := unwrap(s, "Measure"); ok {
		return thingtalk.NewMeasure(inner)
	}
	if inner, ok := unwrap(s, "Entity"); ok {
		return thingtalk.NewEntity(inner)
	}
	if inner, ok := unwrap(s, "Enum"); ok {
		return thingtalk.NewEnum(strings.Split(inner, ",")...)
	}
	if inner, ok := unwrap(s, "Array"); ok {
		return thingtalk.NewArray(parseTypeText(inner))
	}
	return thingtalk.Any
}

func unwrap(s, prefix string) (string, bool) {
	if strings.HasPrefix(s, prefix+"(") && strings.HasSuffix(s, ")") {
		return s[len(prefix)+1 : len(s)-1], true
	}
	return "", false
}
