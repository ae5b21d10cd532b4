package pipeline

import (
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

// guardrailsPrompt classifies a question as on-topic ("network") or not
// ("end"). Structured call: the reply must be the JSON decision object.
func guardrailsPrompt() *prompt.DefaultChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(
			"As an intelligent assistant, your primary objective is to decide whether a given question "+
				"is related to people, organizations, relationships, or network intelligence or not. "+
				"If the question is related to people, organizations, relationships, networking, professional "+
				"connections, or business intelligence, the decision is \"network\". Otherwise, the decision is \"end\". "+
				"To make this decision, assess the content of the question and determine if it refers to any person, "+
				"organization, professional relationship, networking, business intelligence, or related topics. "+
				"Respond with a JSON object holding a single key \"decision\" whose value is either \"network\" or \"end\". "+
				"Output nothing besides that JSON object."),
		schema.UserMessage("{question}"),
	)
}

// text2CypherPrompt turns a question into a first-draft Cypher statement.
func text2CypherPrompt() *prompt.DefaultChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(
			"Given an input question, convert it to a Cypher query. No pre-amble. "+
				"Do not wrap the response in any backticks or anything else. Respond with a Cypher statement only!"),
		schema.UserMessage(
			`You are a Neo4j expert. Given an input question, create a syntactically correct Cypher query to run.
Do not wrap the response in any backticks or anything else. Respond with a Cypher statement only!
Here is the schema information
{schema}

Below are a number of examples of questions and their corresponding Cypher queries.

{fewshot_examples}

User input: {question}
Cypher query:`),
	)
}

// validateCypherPrompt reviews a draft statement against the schema and the
// question. Structured call: errors plus extracted property filters.
func validateCypherPrompt() *prompt.DefaultChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("You are a Cypher expert reviewing a statement written by a junior developer."),
		schema.UserMessage(
			`You must check the following:
* Are there any syntax errors in the Cypher statement?
* Are there any missing or undefined variables in the Cypher statement?
* Are any node labels missing from the schema?
* Are any relationship types missing from the schema?
* Are any of the properties not included in the schema?
* Does the Cypher statement include enough information to answer the question?

Examples of good errors:
* Label (:Foo) does not exist, did you mean (:Bar)?
* Property bar does not exist for label Foo, did you mean baz?
* Relationship FOO does not exist, did you mean FOO_BAR?

Schema:
{schema}

The question is:
{question}

The Cypher statement is:
{cypher}

Respond with a JSON object holding two keys: "errors", a list of error strings describing any discrepancy between the schema and the Cypher statement (an empty list when the statement is sound), and "filters", a list of objects describing every property-based filter the statement applies, each holding the keys "node_label", "property_key" and "property_value".
Make sure you don't make any mistakes!`),
	)
}

// correctCypherPrompt regenerates a statement from the previous draft and
// the validator's error list.
func correctCypherPrompt() *prompt.DefaultChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(
			"You are a Cypher expert reviewing a statement written by a junior developer. "+
				"You need to correct the Cypher statement based on the provided errors. No pre-amble. "+
				"Do not wrap the response in any backticks or anything else. Respond with a Cypher statement only!"),
		schema.UserMessage(
			`Check for invalid syntax or semantics and return a corrected Cypher statement.

Schema:
{schema}

Note: Do not include any explanations or apologies in your responses.
Do not wrap the response in any backticks or anything else.
Respond with a Cypher statement only!

Do not respond to any questions that might ask anything else than for you to construct a Cypher statement.

The question is:
{question}

The Cypher statement is:
{cypher}

The errors are:
{errors}

Corrected Cypher statement: `),
	)
}

// finalAnswerPrompt renders the user-facing answer from whatever payload
// execution produced.
func finalAnswerPrompt() *prompt.DefaultChatTemplate {
	return prompt.FromMessages(
		schema.FString,
		schema.SystemMessage(
			"You are a helpful network intelligence assistant that provides insights about people and "+
				"organizations for enhancing small talk and professional networking."),
		schema.UserMessage(
			`Use the following results retrieved from a database to provide
a succinct, informative answer to the user's question. Focus on providing insights that would be useful for small talk or professional networking.

Respond as if you are answering the question directly, providing context that would be helpful for someone meeting this person or organization.

Results: {results}
Question: {question}`),
	)
}
