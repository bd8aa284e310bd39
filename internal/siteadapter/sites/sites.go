// Package sites registers the simulated Adapter for every supported site
// via init(), the same registration-by-import pattern the teacher uses for
// its per-provider client packages. Importing this package for side effects
// is what makes every site available through siteadapter.New.
package sites

import (
	"github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter"
	"github.com/MaxITService/OneClickPrompts-sub000/internal/siteadapter/simulated"
)

func register(site siteadapter.Site, selectors siteadapter.SelectorDirectory) {
	siteadapter.Register(site, func() siteadapter.Adapter {
		return simulated.New(site, selectors)
	})
}

func init() {
	register(siteadapter.SiteChatGPT, siteadapter.SelectorDirectory{
		Editors:            []string{"#prompt-textarea"},
		SendButtons:        []string{"[data-testid=\"send-button\"]"},
		ThreadRoot:         "main",
		ButtonsContainerID: "composer-footer-actions",
		Containers:         []string{"form"},
	})
	register(siteadapter.SiteClaude, siteadapter.SelectorDirectory{
		Editors:            []string{"div[contenteditable=\"true\"]"},
		SendButtons:        []string{"button[aria-label=\"Send Message\"]"},
		ThreadRoot:         "main",
		ButtonsContainerID: "composer-actions",
		Containers:         []string{"fieldset"},
	})
	register(siteadapter.SiteCopilot, siteadapter.SelectorDirectory{
		Editors:            []string{"textarea#userInput"},
		SendButtons:        []string{"button#submit"},
		ThreadRoot:         "#chat-container",
		ButtonsContainerID: "actions-bar",
		Containers:         []string{"div.input-row"},
	})
	register(siteadapter.SiteDeepSeek, siteadapter.SelectorDirectory{
		Editors:            []string{"textarea"},
		SendButtons:        []string{"div[role=\"button\"].send"},
		ThreadRoot:         "div.chat-list",
		ButtonsContainerID: "toolbar",
		Containers:         []string{"div.input-area"},
	})
	register(siteadapter.SiteAIStudio, siteadapter.SelectorDirectory{
		Editors:            []string{"textarea.prompt-input"},
		SendButtons:        []string{"button.run-button"},
		ThreadRoot:         "ms-chat-session",
		ButtonsContainerID: "run-controls",
		Containers:         []string{"ms-prompt-input-wrapper"},
	})
	register(siteadapter.SiteGrok, siteadapter.SelectorDirectory{
		Editors:            []string{"textarea[aria-label=\"Ask anything\"]"},
		SendButtons:        []string{"button[type=\"submit\"]"},
		ThreadRoot:         "div.conversation",
		ButtonsContainerID: "query-bar-actions",
		Containers:         []string{"form.query-bar"},
	})
	register(siteadapter.SiteGemini, siteadapter.SelectorDirectory{
		Editors:            []string{"rich-textarea div[contenteditable=\"true\"]"},
		SendButtons:        []string{"button.send-button"},
		ThreadRoot:         "chat-window",
		ButtonsContainerID: "input-area-container",
		Containers:         []string{"input-container"},
	})
	register(siteadapter.SitePerplexity, siteadapter.SelectorDirectory{
		Editors:            []string{"textarea[placeholder]"},
		SendButtons:        []string{"button[aria-label=\"Submit\"]"},
		ThreadRoot:         "div.thread",
		ButtonsContainerID: "query-form-actions",
		Containers:         []string{"div.query-form"},
	})
}
