package tool

import "encoding/json"

// Schema describes one tool to the model: its name and the JSON Schema of
// its arguments, in the function-calling shape LLM APIs expect.
type Schema struct {
	Name        Name            `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

// Schemas returns the declarations for the full tool set, in the same stable
// order as Names.
func Schemas() []Schema {
	return []Schema{
		{
			Name: NameShell,
			Description: "Execute a safe shell command. Only allowlisted commands are " +
				"permitted (ls, cat, grep, find, python, npm, git, docker, curl, etc). " +
				"Destructive commands (rm, sudo, kill, shutdown) are blocked.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"required": ["cmd"],
				"properties": {
					"cmd": {
						"type": "string",
						"description": "The command to execute (e.g. 'ls -la', 'python3 script.py')"
					}
				}
			}`),
		},
		{
			Name:        NameReadFile,
			Description: "Read the contents of a text file. Path must be relative to workspace.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"required": ["path"],
				"properties": {
					"path": {
						"type": "string",
						"description": "Relative path to the file (e.g. 'src/main.go')"
					}
				}
			}`),
		},
		{
			Name: NameWriteFile,
			Description: "Write content to a file (creates or overwrites). " +
				"Path must be relative to workspace.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"required": ["path", "content"],
				"properties": {
					"path": {
						"type": "string",
						"description": "Relative path to the file (e.g. 'output.txt')"
					},
					"content": {
						"type": "string",
						"description": "Content to write to the file"
					}
				}
			}`),
		},
		{
			Name:        NameListDirectory,
			Description: "List files and directories at a given path within the workspace.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"required": ["path"],
				"properties": {
					"path": {
						"type": "string",
						"description": "Relative directory path (use '.' for current workspace)"
					}
				}
			}`),
		},
		{
			Name:        NameHTTPRequest,
			Description: "Make an HTTP request to a URL.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"required": ["method", "url"],
				"properties": {
					"method": {
						"type": "string",
						"enum": ["GET", "POST", "PUT", "DELETE", "PATCH", "HEAD"],
						"description": "HTTP method"
					},
					"url": {
						"type": "string",
						"description": "Full URL (e.g. 'https://api.example.com/data')"
					},
					"headers": {
						"type": "object",
						"description": "Optional HTTP headers"
					},
					"body": {
						"description": "Request body (JSON object or string)"
					}
				}
			}`),
		},
		{
			Name: NameGit,
			Description: "Execute git operations: status, log, diff, branch, add, commit, " +
				"push, pull, checkout, stash, fetch, remote, tag.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"required": ["action"],
				"properties": {
					"action": {
						"type": "string",
						"enum": ["status", "log", "diff", "branch", "add", "commit", "push", "pull", "checkout", "stash", "fetch", "remote", "tag"],
						"description": "Git operation to perform"
					},
					"message": {
						"type": "string",
						"description": "Commit message (required for action='commit')"
					},
					"branch": {
						"type": "string",
						"description": "Branch name (for push, pull, checkout)"
					},
					"files": {
						"type": "string",
						"description": "Files to add (for action='add', default='.')"
					}
				}
			}`),
		},
		{
			Name: NameDocker,
			Description: "Execute docker and docker-compose operations: ps, logs, images, " +
				"compose_up, compose_down, compose_ps, compose_logs.",
			Parameters: json.RawMessage(`{
				"type": "object",
				"required": ["action"],
				"properties": {
					"action": {
						"type": "string",
						"enum": ["ps", "logs", "images", "compose_up", "compose_down", "compose_ps", "compose_logs"],
						"description": "Docker operation to perform"
					},
					"service": {
						"type": "string",
						"description": "Service or container name (for logs)"
					},
					"detach": {
						"type": "boolean",
						"description": "Run in background (for compose_up, default=true)"
					}
				}
			}`),
		},
	}
}
