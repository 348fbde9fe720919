package conversation

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	ProfileBilingual = "bilingual"
	ProfileHindi     = "hindi"
)

const MissingConversationFeedback = "Feedback could not be generated due to missing conversation details."

// Profile holds the prompts and labels of one feedback language style.
// OverallPrompt must contain {conversation}, MessagePrompt must contain {response}.
type Profile struct {
	OverallPrompt string `yaml:"overall_prompt"`
	MessagePrompt string `yaml:"message_prompt"`

	// TranscriptTrailingNewline ends every transcript line with a newline
	// instead of only separating lines.
	TranscriptTrailingNewline bool `yaml:"transcript_trailing_newline"`

	OverallHeader    string `yaml:"overall_header"`
	IndividualHeader string `yaml:"individual_header"`
	ResponseLabel    string `yaml:"response_label"`
	FeedbackLabel    string `yaml:"feedback_label"`

	OverallPlaceholder   string `yaml:"overall_placeholder"`
	MessagePlaceholder   string `yaml:"message_placeholder"`
	NoOverallPlaceholder string `yaml:"no_overall_placeholder"`
}

var builtinProfiles = map[string]Profile{
	ProfileBilingual: {
		OverallPrompt: "Based on the following conversation between an insurance agent and a customer, provide feedback in a mix of Hindi and English on the agent's performance. " +
			"The feedback should be categorized as either 'Positives' or 'Needs Improvement' only if necessary and include specific comments on how the agent handled the conversation. " +
			"Consider the overall chat conversation in context. Do not generate or write '***' in feedback text. These categories should be in English.\n\n" +
			"Conversation:\n{conversation}\n\nOverall Feedback:",
		MessagePrompt: "Provide feedback in a mix of Hindi and English on the following response from the agent. specially those english words which are better understood in english. " +
			"Indicate whether it was 'Positive' or 'Needs Improvement' only if necessary and provide specific comments on how it could be improved if needed. " +
			"Consider the overall chat conversation in context. Do not generate '***' in feedback text. These indicators should be in English.\n\n" +
			"Agent's response: {response}\n\nFeedback:",
		TranscriptTrailingNewline: true,
		OverallHeader:             "Overall Feedback",
		IndividualHeader:          "Individual Feedback",
		ResponseLabel:             "Agent's response",
		FeedbackLabel:             "Feedback",
		OverallPlaceholder:        "Could not generate feedback at this time.",
		MessagePlaceholder:        "Could not generate individual feedback at this time.",
		NoOverallPlaceholder:      "No overall feedback available.",
	},
	ProfileHindi: {
		OverallPrompt: "Based on the following conversation between an insurance agent and a customer, provide feedback in Hindi language on the agent's performance. " +
			"The feedback should be categorized as either 'Positives' or 'Needs Improvement' only if necessary and include specific comments on how the agent handled the conversation." +
			"Consider the overall chat conversation as context. The feedback should reflect how the conversation started, how the agent responded to queries, and how the conversation ended. Do not generate or write '***' in feedback text.\n\n" +
			"Conversation:\n{conversation}\n\nOverall Feedback:",
		MessagePrompt: "Provide feedback on the following response from the agent in simple Hindi language. " +
			"Indicate whether it was 'Positive' or 'Needs Improvement' only if necessary and provide specific comments on how it could be improved if needed. These indicators should be in English." +
			"Consider the overall chat conversation as context. Do not generate '***' in feedback text.\n\n" +
			"Your response: {response}\n\nFeedback:",
		TranscriptTrailingNewline: false,
		OverallHeader:             "कुल फ़ीडबैक",
		IndividualHeader:          "व्यक्तिगत फ़ीडबैक",
		ResponseLabel:             "आपका जवाब",
		FeedbackLabel:             "फ़ीडबैक",
		OverallPlaceholder:        "Could not generate feedback at this time.",
		MessagePlaceholder:        "Could not generate individual feedback at this time.",
		NoOverallPlaceholder:      "No overall feedback available.",
	},
}

// LoadProfile returns the named profile. When promptsFile is set, fields
// present in the file override the built-in profile of the same name; a name
// without a built-in starts from the bilingual profile.
func LoadProfile(name, promptsFile string) (Profile, error) {
	profile, builtin := builtinProfiles[name]

	if promptsFile == "" {
		if !builtin {
			return Profile{}, fmt.Errorf("unknown feedback profile '%s'", name)
		}
		return profile, nil
	}

	data, err := os.ReadFile(promptsFile)
	if err != nil {
		return Profile{}, fmt.Errorf("error reading prompts file: %w", err)
	}

	var file struct {
		Profiles map[string]Profile `yaml:"profiles"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Profile{}, fmt.Errorf("error parsing prompts file: %w", err)
	}

	override, ok := file.Profiles[name]
	if !ok && !builtin {
		return Profile{}, fmt.Errorf("unknown feedback profile '%s'", name)
	}
	if !builtin {
		profile = builtinProfiles[ProfileBilingual]
	}

	merged := mergeProfile(profile, override)
	if !strings.Contains(merged.OverallPrompt, "{conversation}") {
		return Profile{}, fmt.Errorf("overall_prompt of profile '%s' must contain {conversation}", name)
	}
	if !strings.Contains(merged.MessagePrompt, "{response}") {
		return Profile{}, fmt.Errorf("message_prompt of profile '%s' must contain {response}", name)
	}
	return merged, nil
}

func mergeProfile(base, override Profile) Profile {
	pick := func(b, o string) string {
		if o != "" {
			return o
		}
		return b
	}

	return Profile{
		OverallPrompt:             pick(base.OverallPrompt, override.OverallPrompt),
		MessagePrompt:             pick(base.MessagePrompt, override.MessagePrompt),
		TranscriptTrailingNewline: base.TranscriptTrailingNewline || override.TranscriptTrailingNewline,
		OverallHeader:             pick(base.OverallHeader, override.OverallHeader),
		IndividualHeader:          pick(base.IndividualHeader, override.IndividualHeader),
		ResponseLabel:             pick(base.ResponseLabel, override.ResponseLabel),
		FeedbackLabel:             pick(base.FeedbackLabel, override.FeedbackLabel),
		OverallPlaceholder:        pick(base.OverallPlaceholder, override.OverallPlaceholder),
		MessagePlaceholder:        pick(base.MessagePlaceholder, override.MessagePlaceholder),
		NoOverallPlaceholder:      pick(base.NoOverallPlaceholder, override.NoOverallPlaceholder),
	}
}

const customerPrompt = `
CONTEXT: AN INSURANCE AGENT HAS APPROACHED YOU FOR THE FIRST TIME TO SELL AN INSURANCE POLICY.

YOUR ROLE:
- ACT AS A POTENTIAL CUSTOMER.
- FOCUS ON YOUR ROLE AS THE CUSTOMER AND MAINTAIN A CONSISTENT PERSONA THROUGHOUT THE CONVERSATION.
- YOUR PROFILE: "{persona}" AND "{profile}".
- ANSWER ONLY TO WHAT HAS BEEN ASKED RELATED TO CONTEXT.
- YOU KNOW HINDI AND ENGLISH LANGUAGE VERY WELL. YOU HAVE A CONVERSATION IN HINDI.
- REMEMBER, TAKE A DEEP BREATH AND THINK TWICE BEFORE RESPONDING.
- KEEP THE CONTEXT OF THE CURRENT CONVERSATION IN MIND AND TAKE IT TOWARDS A POSITIVE END STEP BY STEP BY RESPONDING TO EACH QUERY ONE BY ONE.
- AVOID RESPONDING AS THE AGENT OR PRODUCING A COMPLETE SCRIPT.
- KEEP RESPONSES CONCISE AND LIMITED TO A MAXIMUM OF TWO SENTENCES.

THIS IS VERY IMPORTANT FOR MY CAREER.
`

const customerExamplesHeader = "\nEXAMPLES OF REALISTIC CUSTOMER REPLIES:\n"
