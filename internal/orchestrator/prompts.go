package orchestrator

import (
	"fmt"
	"strings"

	"github.com/ShayCichocki/maestro/pkg/models"
)

const planningTemplate = `Based on the following objective and the previous sub-task results (if any), please break down the objective into the next sub-task, and create a concise and detailed prompt for a subagent so it can execute that task, please assess if the objective has been fully achieved. If the previous sub-task results comprehensively address all aspects of the objective, include the phrase '%s' at the beginning of your response. If the objective is not yet fully achieved, break it down into the next sub-task and create a concise and detailed prompt for a subagent to execute that task.:

Objective: %s

Previous sub-task results:
%s`

const refineTemplate = `Objective: %s

Sub-task results:
%s

Please review and refine the sub-task results into a cohesive final output. Add any missing information or details as needed. When working on code projects make sure to include the code implementation by file.`

// subAgentContextHeader opens the system context given to the sub-agent.
const subAgentContextHeader = "Previous sub-agent tasks:\n"

// noPriorResults stands in for the result list on the first round.
const noPriorResults = "None"

// PlanningPrompt builds the orchestrator prompt for one round.
func PlanningPrompt(objective, sentinelPhrase string, priorResults []string) string {
	prior := noPriorResults
	if len(priorResults) > 0 {
		prior = strings.Join(priorResults, "\n")
	}
	return fmt.Sprintf(planningTemplate, sentinelPhrase, objective, prior)
}

// SubAgentContext builds the system context for a sub-agent call. With no
// summaries only the header line is sent.
func SubAgentContext(summaries []string) string {
	return subAgentContextHeader + strings.Join(summaries, "\n")
}

// RefinePrompt builds the consolidation prompt.
func RefinePrompt(objective string, results []string) string {
	return fmt.Sprintf(refineTemplate, objective, strings.Join(results, "\n"))
}

// Progress message text.

func msgPlanStarted(objective string) string {
	return "Calling orchestrator for your objective: " + objective
}

func msgTaskDispatched(instruction string) string {
	return models.RolePlanning.DisplayName() + ": sending task to sub-agent 👇 " + instruction
}

func msgPlanCompleted(note string) string {
	msg := models.RolePlanning.DisplayName() + ": objective complete 👇"
	if note == "" {
		return msg
	}
	return msg + " " + note
}

func msgTaskCompleted(result string) string {
	return models.RoleExecuting.DisplayName() + " result:\n" + result + "\nTask completed, sending result to orchestrator 👇"
}

const (
	msgRefineStarted   = "Calling orchestrator to provide the refined final output for your objective:"
	msgRefineCompleted = "Refinement complete"
)

func msgRefineFailed(err error) string {
	return "Refinement failed: " + err.Error()
}

func msgFinalOutput(artifact string) string {
	return "Final output: " + artifact
}
