package animation

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/nishantc/manim-video-api/internal/gemini"
	"github.com/nishantc/manim-video-api/internal/types"
)

// sceneClassRe recognizes a Manim class declaration extending Scene
var sceneClassRe = regexp.MustCompile(`class\s+(\w+)\s*\(\s*Scene\s*\)`)

// Generator produces executable Manim source for individual scenes
type Generator struct {
	client *gemini.Client
}

// NewGenerator creates a scene code generator
func NewGenerator(client *gemini.Client) *Generator {
	return &Generator{client: client}
}

// Generate returns Manim source for one scene. It never fails: any upstream
// problem falls back to a deterministic mock program keyed by scene index.
// The returned program's class name always embeds the 1-based scene number.
func (g *Generator) Generate(ctx context.Context, scene types.Scene, index int) string {
	log.Printf("Generating Manim code for scene %d", index+1)

	if !g.client.Enabled() {
		log.Println("GEMINI_API_KEY not set, using mock code generator")
		return MockCode(scene, index)
	}

	text, err := g.client.GenerateContent(ctx, buildCodePrompt(scene, index))
	if err != nil {
		log.Printf("Code generation failed for scene %d: %v, falling back to mock code", index+1, err)
		return MockCode(scene, index)
	}

	code := gemini.ExtractBlock(text, "python")
	return ensureSceneClass(code, index)
}

func buildCodePrompt(scene types.Scene, index int) string {
	return fmt.Sprintf(`Generate Manim Python code for the following scene description: "%s"

This should be scene #%d running from %s to %s.

Generate a complete, executable Manim Python class that extends Scene. The code should:
1. Create appropriate mathematical visualizations based on the description
2. Use appropriate animations with proper timing
3. Include any necessary text elements that match the narration: "%s"
4. Be fully self-contained and runnable as a single file
5. Use best practices for clean, efficient Manim code

Return ONLY the Python code without any explanations or markdown.

Make sure the class name is unique and includes the scene number, like 'Scene%d' or similar.

The code should work with Manim Community Edition.`,
		scene.VisualDescription, index+1, scene.StartTime, scene.EndTime, scene.Narration, index+1)
}

// ExtractSceneClass returns the name of the first class extending Scene,
// or "" when no such declaration is present.
func ExtractSceneClass(code string) string {
	match := sceneClassRe.FindStringSubmatch(code)
	if match == nil {
		return ""
	}
	return match[1]
}

// ensureSceneClass guarantees the program declares a class whose name embeds
// the 1-based scene number. Code with no recognizable class declaration is
// discarded in favor of a minimal title-card scene.
func ensureSceneClass(code string, index int) string {
	current := ExtractSceneClass(code)
	desired := fmt.Sprintf("Scene%d", index+1)

	if current == "" {
		return fallbackCode(index)
	}
	if !strings.Contains(current, desired) {
		code = strings.Replace(code,
			fmt.Sprintf("class %s(Scene)", current),
			fmt.Sprintf("class %s(Scene)", desired), 1)
	}
	return code
}

// fallbackCode is the minimal title-card program used when generated output
// carries no usable class declaration.
func fallbackCode(index int) string {
	return fmt.Sprintf(`from manim import *

class Scene%d(Scene):
    def construct(self):
        title = Text("Scene %d")
        self.play(Write(title))
        self.wait(2)
        self.play(FadeOut(title))
`, index+1, index+1)
}

// MockCode builds a deterministic Manim program for a scene. The template
// varies by index: title card, equation, graph, then bulleted summary.
func MockCode(scene types.Scene, index int) string {
	switch index {
	case 0:
		return fmt.Sprintf(`from manim import *

class Scene%d(Scene):
    def construct(self):
        title = Text("%s")
        self.play(Write(title))
        self.wait(1)
        self.play(title.animate.to_edge(UP))

        circle = Circle(radius=2, color=BLUE)
        self.play(Create(circle))

        self.play(circle.animate.scale(1.2), rate_func=there_and_back)
        self.play(circle.animate.scale(1.2), rate_func=there_and_back)

        self.wait(1)
`, index+1, escapePython(scene.Narration))
	case 1:
		return fmt.Sprintf(`from manim import *

class Scene%d(Scene):
    def construct(self):
        title = Text("%s", font_size=24)
        title.to_edge(UP)
        self.add(title)

        equation = MathTex("x^2 + y^2 = r^2")
        self.play(Write(equation))

        self.play(equation.animate.set_color_by_tex("x^2", YELLOW))
        self.wait(0.5)
        self.play(equation.animate.set_color_by_tex("y^2", GREEN))
        self.wait(0.5)
        self.play(equation.animate.set_color_by_tex("r^2", RED))

        self.wait(1)
`, index+1, escapePython(scene.Narration))
	case 2:
		return fmt.Sprintf(`from manim import *

class Scene%d(Scene):
    def construct(self):
        title = Text("%s", font_size=24)
        title.to_edge(UP)
        self.add(title)

        axes = Axes(
            x_range=[-3, 3, 1],
            y_range=[-3, 3, 1],
            axis_config={"color": BLUE}
        )

        x_label = axes.get_x_axis_label("x")
        y_label = axes.get_y_axis_label("y")
        self.play(Create(axes), Write(x_label), Write(y_label))

        graph = axes.plot(lambda x: x**2, color=RED)
        graph_label = MathTex("f(x) = x^2").next_to(graph, UP)
        self.play(Create(graph), Write(graph_label))

        dot = Dot(color=YELLOW)
        dot.move_to(axes.c2p(-2, 4))
        self.play(FadeIn(dot))

        self.play(
            dot.animate.move_to(axes.c2p(2, 4)),
            rate_func=lambda t: t,
            run_time=3
        )

        self.wait(1)
`, index+1, escapePython(scene.Narration))
	default:
		return fmt.Sprintf(`from manim import *

class Scene%d(Scene):
    def construct(self):
        title = Text("%s", font_size=24)
        title.to_edge(UP)
        self.add(title)

        points = [
            "Key point 1 about the topic",
            "Key point 2 about the topic",
            "Key point 3 about the topic"
        ]

        bullets = VGroup()
        for point in points:
            bullets.add(Text("- " + point, font_size=24))

        bullets.arrange(DOWN, aligned_edge=LEFT, buff=0.5)
        bullets.next_to(title, DOWN, buff=1)

        for bullet in bullets:
            self.play(Write(bullet))
            self.wait(0.5)

        final_equation = MathTex("E = mc^2")
        final_equation.next_to(bullets, DOWN, buff=1)
        self.play(Write(final_equation))
        self.play(final_equation.animate.scale(1.5).set_color(YELLOW))

        self.wait(1)
`, index+1, escapePython(scene.Narration))
	}
}

// escapePython keeps narration text safe inside a double-quoted Python string
func escapePython(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	s = strings.ReplaceAll(s, "\n", " ")
	return s
}
