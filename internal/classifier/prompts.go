package classifier

import (
	"fmt"
	"strings"

	"github.com/myhostelpal/complaint-service/internal/domain"
)

func categoryPrompt(title, description string) string {
	names := make([]string, len(domain.Categories))
	for i, c := range domain.Categories {
		names[i] = string(c)
	}
	return fmt.Sprintf(`You are a JSON API that categorizes hostel complaints. Categories: %s

Input:
Title: %q
Description: %q

Return a raw JSON object without any markdown formatting or code blocks. Just the JSON like this:
{"category": "medical", "confidence": 0.9, "keywords": ["fever"]}`, strings.Join(names, ", "), title, description)
}

func priorityPrompt(title, description string, category domain.TicketCategory) string {
	return fmt.Sprintf(`You are an assistant that determines the urgency of hostel service requests. Return a JSON object only in this exact format:
{"priority":"<urgent|high|medium|low>","confidence":<0-1>,"reasoning":"brief explanation"}

Rules/Guidance:
- Medical emergencies (ambulance, severe injury, difficulty breathing) -> priority: urgent
- Medical issues (fever, headache, illness) -> priority: high
- Safety/security threats -> priority: urgent
- Major service outages (no water/electricity for many residents) or critical infrastructure failures -> high
- Minor repairs or cleaning requests -> low/medium depending on impact
- Any health-related complaints -> minimum priority: high

Title: %q
Description: %q
Category: %q

Return the JSON object.`, title, description, string(category))
}
