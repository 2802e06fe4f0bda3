package config

import (
	"encoding/json"
	"reflect"
	"strings"
)

// members holds the JSON members of an object that its Go type would lose on
// the way back out: fields it does not declare, and declared omitempty fields
// that were present but blank.
type members map[string]json.RawMessage

// jsonKeys maps each JSON member name of t to whether it is omitempty.
func jsonKeys(t reflect.Type) map[string]bool {
	keys := map[string]bool{}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			name = f.Name
		}
		keys[name] = strings.Contains(opts, "omitempty")
	}
	return keys
}

// splitMembers returns the members of data worth carrying across a save.
func splitMembers(data []byte, known map[string]bool) (members, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	for k, v := range raw {
		omitempty, ok := known[k]
		if ok && !(omitempty && isBlank(v)) {
			delete(raw, k)
		}
	}
	if len(raw) == 0 {
		return nil, nil
	}
	return raw, nil
}

func isBlank(v json.RawMessage) bool {
	switch strings.TrimSpace(string(v)) {
	case `""`, "null", "[]", "{}", "false", "0":
		return true
	}
	return false
}

// merge adds the kept members that base does not already carry. A blank
// member only comes back when its field is still blank, since any other value
// would have been written.
func (m members) merge(base []byte) ([]byte, error) {
	if len(m) == 0 {
		return base, nil
	}
	merged := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range m {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

type (
	projectFields     Project
	stepFields        Step
	combinationFields StepCombination
	parameterFields   Parameter
)

var (
	projectKeys     = jsonKeys(reflect.TypeOf(projectFields{}))
	stepKeys        = jsonKeys(reflect.TypeOf(stepFields{}))
	combinationKeys = jsonKeys(reflect.TypeOf(combinationFields{}))
	parameterKeys   = jsonKeys(reflect.TypeOf(parameterFields{}))
)

func (p Project) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(projectFields(p))
	if err != nil {
		return nil, err
	}
	return p.extra.merge(base)
}

func (p *Project) UnmarshalJSON(data []byte) error {
	var fields projectFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitMembers(data, projectKeys)
	if err != nil {
		return err
	}
	fields.extra = extra
	*p = Project(fields)
	return nil
}

func (s Step) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(stepFields(s))
	if err != nil {
		return nil, err
	}
	return s.extra.merge(base)
}

func (s *Step) UnmarshalJSON(data []byte) error {
	var fields stepFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitMembers(data, stepKeys)
	if err != nil {
		return err
	}
	fields.extra = extra
	*s = Step(fields)
	return nil
}

func (sc StepCombination) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(combinationFields(sc))
	if err != nil {
		return nil, err
	}
	return sc.extra.merge(base)
}

func (sc *StepCombination) UnmarshalJSON(data []byte) error {
	var fields combinationFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitMembers(data, combinationKeys)
	if err != nil {
		return err
	}
	fields.extra = extra
	*sc = StepCombination(fields)
	return nil
}

func (p Parameter) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(parameterFields(p))
	if err != nil {
		return nil, err
	}
	return p.extra.merge(base)
}

func (p *Parameter) UnmarshalJSON(data []byte) error {
	var fields parameterFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	extra, err := splitMembers(data, parameterKeys)
	if err != nil {
		return err
	}
	fields.extra = extra
	*p = Parameter(fields)
	return nil
}
