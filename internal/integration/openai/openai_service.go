package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// AgentResponse defines the structured output from the OpenAI agent.
type AgentResponse struct {
	CommandName string `json:"command_name" jsonschema_description:"The command to execute, e.g., GetPortRiskByCode or GeneralQuery"`
	PortCode    string `json:"port_code" jsonschema_description:"The five-letter port code from the known port list, if applicable"`
	UserMessage string `json:"user_message" jsonschema_description:"A message to show back to the user in their original language"`
}

// OpenAIService defines the interface for interacting with the OpenAI agent.
type OpenAIService interface {
	InterpretUserQuery(ctx context.Context, userMessage string, knownPorts []string) (*AgentResponse, error)
}

// openAIServiceImpl implements the OpenAIService interface.
type openAIServiceImpl struct {
	client openai.Client
	schema interface{}
}

// GenerateSchema generates a JSON schema for a given type.
func GenerateSchema[T any]() interface{} {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	return schema
}

// NewOpenAIService creates and initializes a new OpenAIService.
func NewOpenAIService() (OpenAIService, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY environment variable not set")
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	schema := GenerateSchema[AgentResponse]()

	return &openAIServiceImpl{
		client: client,
		schema: schema,
	}, nil
}

// InterpretUserQuery sends a message to the OpenAI agent and returns the structured response.
func (s *openAIServiceImpl) InterpretUserQuery(ctx context.Context, userMessage string, knownPorts []string) (*AgentResponse, error) {
	systemPrompt := fmt.Sprintf(`You are a marine port weather assistant for a ship operations team. You answer questions about weather risk conditions (wind, gusts, wave height) at the ports the team monitors.

List of monitored ports, each given as "CODE - Name": %s

Behavior:
1. If the user clearly wants weather or risk information for a specific port from the list:
   - command_name = "GetPortRiskByCode"
   - port_code: the five-letter code of the matched port from the list. Match by code or by port name in any reasonable spelling; if no confident match exists, leave port_code as an empty string.
   - user_message: a one-line confirmation in the user's language (e.g. "Checking the latest forecast for Kaohsiung...").
2. If the user is not asking about a specific port (greetings, small talk, fleet-wide questions):
   - command_name = "GeneralQuery"
   - port_code = ""
   - user_message: a short helpful reply in their language, pointing them to /ports when relevant.

You understand English and reply in the language the user used.

Output **strictly** in JSON.`, knownPorts)

	schemaParam := openai.ResponseFormatJSONSchemaJSONSchemaParam{
		Name:        "agent_response",
		Description: openai.String("Structured response containing command, port code, and user message"),
		Schema:      s.schema,
		Strict:      openai.Bool(true),
	}

	respFormat := openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{JSONSchema: schemaParam},
	}

	chat, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userMessage),
		},
		ResponseFormat: respFormat,
		Model:          openai.ChatModelGPT4o,
	})

	if err != nil {
		return nil, fmt.Errorf("error calling OpenAI API: %w", err)
	}

	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, errors.New("received empty response from OpenAI")
	}

	var agentResp AgentResponse
	err = json.Unmarshal([]byte(chat.Choices[0].Message.Content), &agentResp)
	if err != nil {
		log.Printf("Failed to unmarshal OpenAI response: %s\nRaw response: %s", err, chat.Choices[0].Message.Content)
		return nil, fmt.Errorf("error unmarshalling OpenAI response: %w", err)
	}

	return &agentResp, nil
}
