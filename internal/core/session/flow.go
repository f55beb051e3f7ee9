package session

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"reload-gateway/internal/core/domain/entity"

	"gopkg.in/yaml.v3"
)

type StepKind string

const (
	StepOption       StepKind = "option"
	StepIdentifier   StepKind = "identifier"
	StepPayload      StepKind = "payload"
	StepConfirmation StepKind = "confirmation"
)

// Step is one menu input. Value may reference {msisdn}, {promo}, {amount}
// and {reference}.
type Step struct {
	Kind  StepKind `yaml:"kind"`
	Value string   `yaml:"value"`
}

type Flow struct {
	ShortCode string `yaml:"short_code"`
	Steps     []Step `yaml:"steps"`
}

type Flows map[entity.NetworkID]Flow

func DefaultFlows() Flows {
	return Flows{
		entity.NetworkSmart: {
			ShortCode: "*343#",
			Steps: []Step{
				{Kind: StepOption, Value: "3"},
				{Kind: StepIdentifier, Value: "{msisdn}"},
				{Kind: StepPayload, Value: "{promo}"},
				{Kind: StepConfirmation, Value: "1"},
			},
		},
		entity.NetworkGlobe: {
			ShortCode: "*100#",
			Steps: []Step{
				{Kind: StepOption, Value: "2"},
				{Kind: StepIdentifier, Value: "{msisdn}"},
				{Kind: StepPayload, Value: "{amount}"},
				{Kind: StepConfirmation, Value: "1"},
			},
		},
	}
}

type flowsFile struct {
	Flows map[string]Flow `yaml:"flows"`
}

// LoadFlows reads flow definitions from a YAML file. Networks missing from
// the file keep their default flow.
func LoadFlows(path string) (Flows, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read flows file: %w", err)
	}
	return ParseFlows(raw)
}

func ParseFlows(raw []byte) (Flows, error) {
	var file flowsFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("decode flows: %w", err)
	}

	flows := DefaultFlows()
	for name, flow := range file.Flows {
		network, ok := entity.ParseNetwork(name)
		if !ok || network == entity.NetworkUnknown {
			return nil, fmt.Errorf("flow %q: unsupported network", name)
		}
		if err := flow.validate(); err != nil {
			return nil, fmt.Errorf("flow %s: %w", network, err)
		}
		flows[network] = flow
	}
	return flows, nil
}

func (f Flows) For(network entity.NetworkID) (Flow, bool) {
	flow, ok := f[network]
	return flow, ok
}

func (f Flow) validate() error {
	if strings.TrimSpace(f.ShortCode) == "" {
		return fmt.Errorf("short_code is required")
	}
	if len(f.Steps) == 0 {
		return fmt.Errorf("at least one step is required")
	}
	for i, s := range f.Steps {
		switch s.Kind {
		case StepOption, StepIdentifier, StepPayload, StepConfirmation:
		default:
			return fmt.Errorf("step %d: unknown kind %q", i+1, s.Kind)
		}
		if s.Value == "" {
			return fmt.Errorf("step %d: value is required", i+1)
		}
	}
	return nil
}

// Render substitutes transaction fields into the step values.
func (f Flow) Render(tx entity.Transaction) []Step {
	r := strings.NewReplacer(
		"{msisdn}", tx.SubscriberNumber,
		"{promo}", tx.PromoCode,
		"{amount}", strconv.Itoa(tx.Amount),
		"{reference}", tx.Reference,
	)
	out := make([]Step, len(f.Steps))
	for i, s := range f.Steps {
		out[i] = Step{Kind: s.Kind, Value: r.Replace(s.Value)}
	}
	return out
}
