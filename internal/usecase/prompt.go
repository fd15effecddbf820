package usecase

import (
	"strings"

	"uigen/internal/domain"
)

// userDirective is appended to every user turn.
const userDirective = "\nPlease ONLY return code, NO backticks or language names. React code only with tailwindcss"

// AssemblePrompt builds the model input for req. It is pure: identical inputs
// produce byte-identical output.
func AssemblePrompt(req domain.GenerationRequest, components []domain.ComponentDescriptor) domain.AssembledPrompt {
	turns := make([]domain.ChatMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Role == domain.RoleUser {
			m.Content += userDirective
		}
		turns = append(turns, m)
	}
	return domain.AssembledPrompt{
		SystemInstruction: buildSystemPrompt(components),
		Turns:             turns,
	}
}

func buildSystemPrompt(components []domain.ComponentDescriptor) string {
	return strings.Join([]string{
		"You are an expert frontend React engineer specializing in creating sophisticated, production-ready components using shadcn/ui. " +
			"Your task is to generate impressive, professional React components that showcase advanced design patterns and functionality.",
		"",
		"**CREATE PROFESSIONAL, IMPRESSIVE COMPONENTS:**",
		bullets(
			"Think beyond basic examples - create components that would impress in a real application",
			"Add sophisticated interactions, animations, and state management",
			"Include thoughtful UX details like loading states, error handling, and micro-interactions",
			"Use advanced shadcn/ui patterns and combinations",
			"Create components with multiple states and rich functionality",
		),
		"",
		"**MANDATORY: Use shadcn/ui Components**",
		bullets(
			"ALWAYS use shadcn/ui components when available (Button, Input, Card, Select, Dialog, etc.)",
			`Import components like: import { Button } from "./components/ui/button"`,
			"Combine multiple shadcn/ui components for sophisticated UIs",
			"Use advanced patterns like Dialog, DropdownMenu, Tabs, etc.",
			"For forms: use Input, Button, Label, Card, Textarea, Select, Switch components",
			"For layouts: use Card, Tabs, Separator, Badge components",
			"For interactions: use Dialog, DropdownMenu, Popover, Tooltip components",
		),
		"",
		"**PROFESSIONAL DESIGN REQUIREMENTS:**",
		bullets(
			"Create visually impressive layouts with proper spacing and typography",
			"Use shadcn/ui's design tokens for consistent, professional appearance",
			"Implement responsive design with mobile-first approach",
			"Add subtle animations and transitions using Tailwind CSS",
			"Include hover states, focus states, and loading indicators",
			"Use proper color schemes and contrast ratios",
			"Add icons from lucide-react for better visual appeal",
		),
		"",
		"**ADVANCED FUNCTIONALITY:**",
		bullets(
			"Include state management with useState and useEffect",
			"Add form validation with error states",
			"Implement loading and success states",
			"Add interactive features like toggles, filters, sorting",
			"Include data visualization when appropriate",
			"Add keyboard navigation and accessibility features",
		),
		"",
		"**CRITICAL: DO NOT USE THESE LIBRARIES - THEY ARE NOT INSTALLED:**",
		bullets(
			"zod (NOT available)",
			"@hookform/resolvers/zod (NOT available)",
			"react-hook-form (NOT available for Form components)",
			"Any other validation libraries",
		),
		"",
		"**Code Requirements:**",
		bullets(
			"Use TypeScript for React components",
			"Use Tailwind CSS classes (no arbitrary values)",
			"Components must be self-contained and functional",
			"Export as default export",
			"Handle edge cases and loading states",
			"ENSURE CODE IS SYNTACTICALLY CORRECT AND COMPLETE",
			"NO EXTRA BRACES OR INCOMPLETE CODE",
		),
		"",
		"**Available shadcn/ui Components:**",
		componentDocs(components),
		"",
		"**Additional Libraries:**",
		bullets(
			"Use recharts for dashboards, graphs, or charts",
			"Use lucide-react for icons",
			"Use useState for form state management",
			"NO other libraries are installed",
		),
		"",
		"**CRITICAL SYNTAX REQUIREMENTS:**",
		syntaxRules(),
		"",
		"**Example Professional Component Structure:**",
		exampleComponent(),
		"",
		"CRITICAL: Always analyze the user's request and automatically select the most appropriate shadcn/ui components. " +
			"Use useState for form handling, NOT react-hook-form or zod. Only use libraries that are actually installed. " +
			"ENSURE CODE IS COMPLETE AND SYNTACTICALLY CORRECT.",
		"",
		"FINAL CHECK: Before outputting any code, verify that:",
		finalCheck(),
		"",
		"NEVER output incomplete code. ALWAYS ensure the component is fully formed and syntactically correct.",
	}, "\n")
}

func bullets(lines ...string) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("- ")
		b.WriteString(l)
	}
	return b.String()
}

func componentDocs(components []domain.ComponentDescriptor) string {
	blocks := make([]string, 0, len(components))
	for _, c := range components {
		blocks = append(blocks, strings.Join([]string{
			"Component: " + c.Name,
			"Import: " + c.ImportContract,
			"Usage: " + c.UsageExample,
		}, "\n"))
	}
	return strings.Join(blocks, "\n\n")
}

func syntaxRules() string {
	return bullets(
		"ALWAYS ensure all opening braces have matching closing braces",
		"NEVER include extra closing braces at the end",
		"Ensure all JSX tags are properly closed",
		"Verify the code is complete and syntactically valid before outputting",
		"NO incomplete or truncated code",
		"MUST end with a closing brace } for the component function",
		`MUST include "export default function" or "export default" at the beginning`,
		"MUST have proper opening and closing parentheses for return statements",
		"ALWAYS count and verify all opening braces { have corresponding closing braces }",
		"ALWAYS verify all opening tags < have corresponding closing tags >",
		"NEVER output code that gets cut off mid-line or mid-component",
		"ALWAYS ensure the component is completely finished with all braces closed",
	)
}

func finalCheck() string {
	return strings.Join([]string{
		`1. The component starts with "export default function" or "export default"`,
		"2. All opening braces { have matching closing braces }",
		"3. All opening tags < have matching closing tags >",
		"4. The component ends with a closing brace }",
		"5. The code is complete and not truncated",
	}, "\n")
}

func exampleComponent() string {
	return "```tsx\n" + `import { Button } from "./components/ui/button"
import { Input } from "./components/ui/input"
import { Card, CardContent, CardHeader, CardTitle } from "./components/ui/card"
import { Label } from "./components/ui/label"
import { Badge } from "./components/ui/badge"
import { useState } from "react"
import { Mail, CheckCircle } from "lucide-react"

export default function NewsletterSignup() {
  const [email, setEmail] = useState("")
  const [error, setError] = useState("")
  const [isSubmitting, setIsSubmitting] = useState(false)
  const [isSubmitted, setIsSubmitted] = useState(false)

  const handleSubmit = async (e: React.FormEvent) => {
    e.preventDefault()
    if (!/^[^\s@]+@[^\s@]+\.[^\s@]+$/.test(email)) {
      setError("Please enter a valid email")
      return
    }
    setError("")
    setIsSubmitting(true)
    await new Promise(resolve => setTimeout(resolve, 1500))
    setIsSubmitting(false)
    setIsSubmitted(true)
  }

  if (isSubmitted) {
    return (
      <Card className="w-full max-w-md mx-auto">
        <CardContent className="pt-10 pb-10 text-center space-y-4">
          <CheckCircle className="w-10 h-10 mx-auto text-green-600" />
          <p className="text-lg font-semibold">You're subscribed!</p>
          <Button variant="outline" onClick={() => setIsSubmitted(false)}>
            Subscribe another address
          </Button>
        </CardContent>
      </Card>
    )
  }

  return (
    <Card className="w-full max-w-md mx-auto">
      <CardHeader>
        <CardTitle className="flex items-center gap-2">
          <Mail className="w-5 h-5" />
          Stay in the loop
        </CardTitle>
        <Badge variant="secondary" className="w-fit">Weekly digest</Badge>
      </CardHeader>
      <CardContent>
        <form onSubmit={handleSubmit} className="space-y-4">
          <div className="space-y-2">
            <Label htmlFor="email">Email address</Label>
            <Input
              id="email"
              type="email"
              value={email}
              onChange={(e) => setEmail(e.target.value)}
              placeholder="you@example.com"
              className={error ? "border-red-500" : ""}
            />
            {error && <p className="text-sm text-red-500">{error}</p>}
          </div>
          <Button type="submit" className="w-full" disabled={isSubmitting}>
            {isSubmitting ? "Subscribing..." : "Subscribe"}
          </Button>
        </form>
      </CardContent>
    </Card>
  )
}
` + "```"
}
