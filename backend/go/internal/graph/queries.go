package graph

const (
	createStudentQuery = `
MERGE (s:Student {id: $id})
SET s.gender = $gender,
    s.age = $age,
    s.cgpa = $cgpa,
    s.depression = $depression,
    s.suicidal_thoughts = $suicidal_thoughts`

	linkCityQuery = `
MATCH (s:Student {id: $student_id})
MERGE (c:City {name: $city})
MERGE (s)-[:LIVES_IN]->(c)`

	linkProfessionQuery = `
MATCH (s:Student {id: $student_id})
MERGE (p:Profession {name: $profession})
MERGE (s)-[:HAS_PROFESSION]->(p)`

	linkConditionQuery = `
MATCH (s:Student {id: $student_id})
WHERE s.depression = 1
MERGE (m:MentalCondition {type: 'Depression'})
MERGE (s)-[:SUFFERS_FROM]->(m)`

	studentNetworkQuery = `
MATCH (s:Student {id: $student_id})-[r]-(n)
RETURN s, type(r) AS relationship, n`

	networkQuery = `
MATCH (s:Student)-[r]->(n)
RETURN s, type(r) AS relationship, n
LIMIT $limit`

	depressedByCityQuery = `
MATCH (s:Student)-[:LIVES_IN]->(c:City)
WHERE s.depression = 1
RETURN c.name AS city, count(s) AS depressed_count
ORDER BY depressed_count DESC, city`

	depressionByCityQuery = `
MATCH (s:Student)-[:LIVES_IN]->(c:City)
WITH c.name AS name,
     count(s) AS total,
     sum(CASE WHEN s.depression = 1 THEN 1 ELSE 0 END) AS depressed
RETURN name, total, depressed,
       round(toFloat(depressed) / total * 100, 2) AS depression_rate
ORDER BY depression_rate DESC, name`

	depressionByProfessionQuery = `
MATCH (s:Student)-[:HAS_PROFESSION]->(p:Profession)
WITH p.name AS name,
     count(s) AS total,
     sum(CASE WHEN s.depression = 1 THEN 1 ELSE 0 END) AS depressed
RETURN name, total, depressed,
       round(toFloat(depressed) / total * 100, 2) AS depression_rate
ORDER BY depression_rate DESC, name`

	pageRankQuery = `
CALL gds.pageRank.stream($graph_name)
YIELD nodeId, score
RETURN gds.util.asNode(nodeId).id AS student_id, score
ORDER BY score DESC
LIMIT $limit`

	communitiesQuery = `
CALL gds.louvain.stream($graph_name)
YIELD nodeId, communityId
RETURN communityId AS community_id, collect(gds.util.asNode(nodeId).id) AS members
ORDER BY size(members) DESC`
)

// ProjectionName 是 PageRank 与社区发现使用的 GDS 图投影名称。
const ProjectionName = "student-graph"
