package reason

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"

	"github.com/cartpilot/server/internal/agent/model"
	errx "github.com/cartpilot/server/internal/core/error"
	logx "github.com/cartpilot/server/pkg/logger"
)

// Config holds what is needed to build the Gemini-backed reasoning service.
type Config struct {
	APIKey     string
	BaseURL    string
	Classifier model.ClassifierModelConfig
	Reasoner   model.ReasonerModelConfig
}

// Service implements Reasoner over two chat models: a small fast one for
// classification and parsing, a larger one for vendor reasoning and
// explanations.
type Service struct {
	classifier einomodel.BaseChatModel
	reasoner   einomodel.BaseChatModel
}

var _ Reasoner = (*Service)(nil)

// NewService creates the Gemini client and both chat models.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions.BaseURL = cfg.BaseURL
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		logx.Error().Err(err).Msg("Error creating Gemini client")
		return nil, fmt.Errorf("error creating Gemini client: %w", err)
	}

	classifier, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Classifier.Model,
		Temperature: &cfg.Classifier.Temperature,
		MaxTokens:   &cfg.Classifier.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating classifier model")
		return nil, fmt.Errorf("error creating classifier model: %w", err)
	}

	reasoner, err := gemini.NewChatModel(ctx, &gemini.Config{
		Client:      client,
		Model:       cfg.Reasoner.Model,
		Temperature: &cfg.Reasoner.Temperature,
		MaxTokens:   &cfg.Reasoner.MaxTokens,
	})
	if err != nil {
		logx.Error().Err(err).Msg("Error creating reasoner model")
		return nil, fmt.Errorf("error creating reasoner model: %w", err)
	}

	return &Service{classifier: classifier, reasoner: reasoner}, nil
}

// NewWithModels wires the service over pre-built chat models. Used by tests.
func NewWithModels(classifier, reasoner einomodel.BaseChatModel) *Service {
	return &Service{classifier: classifier, reasoner: reasoner}
}

func (s *Service) generate(ctx context.Context, cm einomodel.BaseChatModel, system, user string) (map[string]any, error) {
	msg, err := cm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(system),
		schema.UserMessage(user),
	})
	if err != nil {
		return nil, errx.New(err, 502, errx.ReasoningErrorMessage)
	}
	out, err := ExtractJSON(msg.Content)
	if err != nil {
		logx.Warn().Err(err).Str("content", truncate(msg.Content, 300)).Msg("Unparseable model output")
		return nil, errx.New(err, 502, errx.ReasoningErrorMessage)
	}
	return out, nil
}

// ParseList turns free text into normalised requested items.
func (s *Service) ParseList(ctx context.Context, input string) ([]model.RequestedItem, error) {
	out, err := s.generate(ctx, s.classifier, parsingSystemPrompt, fmt.Sprintf(parseListPromptTemplate, input))
	if err != nil {
		return nil, err
	}

	raw, ok := out["items"].([]any)
	if !ok {
		return nil, errx.New(fmt.Errorf("parse output missing items array"), 502, errx.ReasoningErrorMessage)
	}

	items := make([]model.RequestedItem, 0, len(raw))
	for _, v := range raw {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		name := normalizeProductKey(jsonString(obj, "item_name"))
		if name == "" {
			continue
		}
		qty := jsonFloat(obj, "quantity")
		if qty <= 0 {
			qty = 1
		}
		items = append(items, model.RequestedItem{
			Name:     name,
			Quantity: qty,
			Unit:     parseUnit(jsonString(obj, "unit")),
		})
	}
	if len(items) == 0 {
		return nil, errx.New(fmt.Errorf("no items parsed from input"), 422, "Could not find any grocery items in your message")
	}

	logx.Debug().Int("items", len(items)).Msg("Parsed grocery list")
	return items, nil
}

// ClassifyFeedback classifies a post-build user instruction against the cart.
func (s *Service) ClassifyFeedback(ctx context.Context, utterance string, cart CartContext) (*Classification, error) {
	out, err := s.generate(ctx, s.classifier, classifierSystemPrompt,
		fmt.Sprintf(classifyPromptTemplate, utterance, formatCartContext(cart)))
	if err != nil {
		return nil, err
	}

	params := jsonObject(out, "action_parameters")
	cls := &Classification{
		Action:   ParseCorrectionAction(jsonString(out, "action")),
		Response: jsonString(out, "response"),
		Params: CorrectionParams{
			ProductKey:    normalizeProductKey(jsonString(params, "product_name")),
			NewItemsInput: jsonString(params, "new_items_input"),
			Question:      jsonString(params, "question"),
			Requirement:   utterance,
		},
	}
	cls.Params.AdditionalItems = jsonStringSlice(params, "additional_items")

	logx.Debug().
		Str("action", string(cls.Action)).
		Str("product_key", cls.Params.ProductKey).
		Msg("Classified user feedback")
	return cls, nil
}

// SelectVendor asks the reasoning model to choose one vendor variant among
// the per-source offers. When modCtx is set, the user's requirement is
// prioritised over plain value.
func (s *Service) SelectVendor(ctx context.Context, productKey string, bySource map[string][]model.Offer, modCtx *ModifyContext) (*model.VendorSelection, error) {
	var modSection string
	if modCtx != nil {
		modSection = fmt.Sprintf(modifyContextTemplate, modCtx.Requirement, formatCurrentLine(modCtx.Current))
	}

	out, err := s.generate(ctx, s.reasoner, reasoningSystemPrompt,
		fmt.Sprintf(selectVendorPromptTemplate, productKey, formatOffersBySource(bySource), modSection))
	if err != nil {
		return nil, err
	}

	variant := jsonObject(out, "selected_variant")
	sel := &model.VendorSelection{
		Source:     jsonString(out, "selected_vendor"),
		Brand:      jsonString(variant, "brand"),
		PackSize:   jsonFloat(variant, "pack_size"),
		PackUnit:   parseUnit(jsonString(variant, "unit")),
		Price:      jsonFloat(variant, "price"),
		Reasoning:  jsonString(out, "reasoning"),
		Confidence: jsonFloat(out, "confidence"),
	}
	if sel.Source == "" {
		return nil, errx.New(fmt.Errorf("vendor selection missing selected_vendor"), 502, errx.ReasoningErrorMessage)
	}
	return sel, nil
}

// ExplainSelection produces the user-facing explanation for a decision the
// selector already made. Failures degrade to the caller's fallback text.
func (s *Service) ExplainSelection(ctx context.Context, productKey string, decision model.SelectionDecision, quantity float64, unit model.Unit) (string, float64, error) {
	var unitSuffix string
	if unit != model.UnitCount {
		unitSuffix = string(unit)
	}
	prompt := fmt.Sprintf(explainPromptTemplate,
		productKey,
		quantity, unitSuffix,
		decision.Strategy,
		decision.Chosen.Brand,
		decision.Chosen.PackSize, decision.Chosen.PackUnit,
		decision.Chosen.Source,
		decision.TotalPrice,
		decision.Rationale,
	)

	out, err := s.generate(ctx, s.reasoner, explainerSystemPrompt, prompt)
	if err != nil {
		return "", 0, err
	}
	reason := jsonString(out, "reason")
	if reason == "" {
		return "", 0, errx.New(fmt.Errorf("explanation missing reason"), 502, errx.ReasoningErrorMessage)
	}
	return reason, jsonFloat(out, "confidence"), nil
}

// ---- prompt formatting helpers ----

func formatCartContext(cart CartContext) string {
	if len(cart.Lines) == 0 {
		return "(cart is empty)"
	}
	var b strings.Builder
	for _, line := range cart.Lines {
		fmt.Fprintf(&b, "- %s: %s from %s, %.2f\n", line.ProductKey, line.Brand, line.Vendor, line.Price)
	}
	fmt.Fprintf(&b, "Total: %.2f", cart.TotalPrice)
	if len(cart.ModifiedKeys) > 0 {
		fmt.Fprintf(&b, "\nRecently modified: %s", strings.Join(cart.ModifiedKeys, ", "))
	}
	return b.String()
}

func formatOffersBySource(bySource map[string][]model.Offer) string {
	sources := make([]string, 0, len(bySource))
	for src := range bySource {
		sources = append(sources, src)
	}
	sort.Strings(sources)

	var b strings.Builder
	for _, src := range sources {
		fmt.Fprintf(&b, "%s:\n", src)
		for _, o := range bySource[src] {
			fmt.Fprintf(&b, "  - %s %v%s at %.2f (%s)\n", o.Brand, o.PackSize, o.PackUnit, o.Price, o.Availability)
		}
	}
	return b.String()
}

func formatCurrentLine(line *model.CartLine) string {
	if line == nil {
		return "(none)"
	}
	return fmt.Sprintf("%s from %s at %.2f", line.Brand, line.Vendor, line.Price)
}

func normalizeProductKey(s string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), " ", "_"))
}

func parseUnit(s string) model.Unit {
	switch model.Unit(strings.ToLower(strings.TrimSpace(s))) {
	case model.UnitKilogram:
		return model.UnitKilogram
	case model.UnitGram:
		return model.UnitGram
	case model.UnitLitre:
		return model.UnitLitre
	case model.UnitMillilitre:
		return model.UnitMillilitre
	default:
		return model.UnitCount
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
