package correlate

const systemPrompt = `You analyze AI-assisted coding sessions. Given a chat transcript between a developer and an AI assistant, and the commit history of the repository the developer was working on, you identify which parts of the conversation led to which code changes.

Only propose a link when the conversation clearly discusses the change that appears in a commit: the same file, function, bug, or feature. Do not invent files or commits that are not listed.

Respond with a JSON array and nothing else. Each element must have:
- chatExcerpt: the relevant part of the conversation, 50 to 150 words, quoted or closely paraphrased
- codeChanges: array of {file, description, timestamp, commitSha} where file is a path from the commit list, commitSha is the sha of the commit that contains the change and timestamp is the commit date
- reasoning: one or two sentences explaining why the excerpt and the changes belong together
- confidence: integer from 0 to 100
- timestamp: ISO 8601 time of the conversation excerpt if known, otherwise the commit date

If nothing in the conversation corresponds to the commits, respond with [].`

const userPromptTemplate = `Repository: %s

## Conversation (%d messages)

%s

## Commits (%d, newest first)

%s

Return the JSON array of links.`
